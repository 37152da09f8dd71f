// Package ocr turns document bytes into raw text with tesseract. PDFs are
// rasterized with pdftoppm first.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"marksheet/internal/config"
	"marksheet/internal/domain"
)

// Extractor implements port.TextExtractor.
type Extractor struct {
	cfg    config.OCRConfig
	runner Runner
}

// NewExtractor creates an Extractor that shells out to the configured tools.
func NewExtractor(cfg *config.OCRConfig) *Extractor {
	return NewExtractorWithRunner(cfg, execRunner{})
}

// NewExtractorWithRunner creates an Extractor with a custom command runner (for testing).
func NewExtractorWithRunner(cfg *config.OCRConfig, runner Runner) *Extractor {
	c := *cfg
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Language == "" {
		c.Language = "eng"
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	return &Extractor{cfg: c, runner: runner}
}

// ExtractRawText returns the OCR text of a document. PDF pages are joined with
// newlines in page order.
func (e *Extractor) ExtractRawText(ctx context.Context, data []byte, kind domain.DocumentKind) (string, error) {
	if e.cfg.TimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.cfg.TimeoutSecs)*time.Second)
		defer cancel()
	}

	tmpDir, err := os.MkdirTemp("", "marksheet-ocr-*")
	if err != nil {
		return "", fmt.Errorf("%w: creating temp dir: %v", domain.ErrExtractionFailed, err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	switch kind {
	case domain.DocumentKindImage:
		return e.extractImage(ctx, tmpDir, data)
	case domain.DocumentKindPDF:
		return e.extractPDF(ctx, tmpDir, data)
	default:
		return "", fmt.Errorf("%w: document kind %q", domain.ErrUnsupportedFormat, kind)
	}
}

func (e *Extractor) extractImage(ctx context.Context, tmpDir string, data []byte) (string, error) {
	path := filepath.Join(tmpDir, "image")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("%w: writing image: %v", domain.ErrExtractionFailed, err)
	}
	return e.tesseract(ctx, path)
}

func (e *Extractor) extractPDF(ctx context.Context, tmpDir string, data []byte) (string, error) {
	pages, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return "", fmt.Errorf("%w: reading pdf: %v", domain.ErrExtractionFailed, err)
	}
	if pages == 0 {
		return "", fmt.Errorf("%w: pdf has no pages", domain.ErrExtractionFailed)
	}

	in := filepath.Join(tmpDir, "document.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return "", fmt.Errorf("%w: writing pdf: %v", domain.ErrExtractionFailed, err)
	}

	// pdftoppm -r 300 -png [-l N] <in.pdf> <tmp/page>
	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 && pages > e.cfg.MaxPages {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, in, prefix)
	if _, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...); err != nil {
		return "", fmt.Errorf("%w: pdftoppm: %v: %s", domain.ErrExtractionFailed, err, truncate(string(errb), 500))
	}

	// pdftoppm zero-pads page numbers, so a lexical sort is page order
	images, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(images)
	if len(images) == 0 {
		return "", fmt.Errorf("%w: pdftoppm produced no images", domain.ErrExtractionFailed)
	}

	texts := make([]string, 0, len(images))
	for _, img := range images {
		txt, err := e.tesseract(ctx, img)
		if err != nil {
			return "", err
		}
		texts = append(texts, txt)
	}
	return strings.Join(texts, "\n"), nil
}

// tesseract <file> stdout -l <lang>
func (e *Extractor) tesseract(ctx context.Context, path string) (string, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.Language)
	if err != nil {
		return "", fmt.Errorf("%w: tesseract: %v: %s", domain.ErrExtractionFailed, err, truncate(string(errb), 500))
	}
	return string(out), nil
}
