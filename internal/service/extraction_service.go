package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"marksheet/internal/confidence"
	"marksheet/internal/config"
	"marksheet/internal/domain"
	"marksheet/internal/parser"
	"marksheet/internal/port"
)

// ExtractInput is the DTO for an extraction request.
type ExtractInput struct {
	RequestID string
	FileName  string
	Data      []byte
}

// ExtractionService defines the marksheet extraction contract.
type ExtractionService interface {
	Extract(ctx context.Context, input ExtractInput) (*domain.MarksheetResponse, error)
}

type extractionService struct {
	extractor    port.TextExtractor
	orchestrator *parser.Orchestrator
	archiver     *Archiver
	cfg          *config.UploadConfig
	now          func() time.Time
}

// NewExtractionService creates a new ExtractionService implementation.
// archiver may be nil when archiving is disabled.
func NewExtractionService(
	extractor port.TextExtractor,
	orchestrator *parser.Orchestrator,
	archiver *Archiver,
	cfg *config.UploadConfig,
) ExtractionService {
	return &extractionService{
		extractor:    extractor,
		orchestrator: orchestrator,
		archiver:     archiver,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (s *extractionService) Extract(ctx context.Context, input ExtractInput) (*domain.MarksheetResponse, error) {
	requestID := input.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	fileType, err := s.validate(input)
	if err != nil {
		log.Printf("[%s] extractionService.Extract: rejected %q: %v", requestID, input.FileName, err)
		return nil, err
	}

	rawText, err := s.extractor.ExtractRawText(ctx, input.Data, fileType.Kind())
	if err != nil {
		log.Printf("[%s] extractionService.Extract: OCR failed for %q: %v", requestID, input.FileName, err)
		return nil, err
	}
	if strings.TrimSpace(rawText) == "" {
		return nil, domain.ErrNoReadableText
	}

	result := s.orchestrator.Extract(ctx, rawText)
	record := result.Record

	log.Printf("[%s] extractionService.Extract: %q extracted via %s at %s after %d model call(s)",
		requestID, input.FileName, result.Source, result.Stage, len(result.Attempts))

	resp := &domain.MarksheetResponse{
		StudentInfo:   record.StudentInfo,
		ExamInfo:      record.ExamInfo,
		Subjects:      record.Subjects,
		OverallResult: record.OverallResult,
		Confidence:    confidence.Score(record),
		Extraction: domain.ExtractionMeta{
			RequestID:   requestID,
			Source:      result.Source,
			Stage:       string(result.Stage),
			Attempts:    len(result.Attempts),
			FileName:    input.FileName,
			FileType:    fileType,
			TextLength:  len(rawText),
			ProcessedAt: s.now().UTC(),
		},
	}

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, input.Data, resp); err != nil {
			log.Printf("[%s] extractionService.Extract: archive failed: %v", requestID, err)
		}
	}

	return resp, nil
}

// validate checks extension, size and magic bytes, and returns the file type.
func (s *extractionService) validate(input ExtractInput) (domain.FileType, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.FileName), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: extension %q", domain.ErrUnsupportedFormat, ext)
	}

	if limit := s.cfg.MaxBytes(); limit > 0 && int64(len(input.Data)) > limit {
		return "", domain.ErrFileTooLarge
	}

	head := input.Data
	if len(head) > 512 {
		head = head[:512]
	}
	detectedType := http.DetectContentType(head)
	detected, ok := domain.AllowedContentTypes[detectedType]
	if !ok {
		return "", fmt.Errorf("%w: content type %s", domain.ErrUnsupportedFormat, detectedType)
	}
	if detected.Kind() != fileType.Kind() {
		return "", fmt.Errorf("%w: %s content in a .%s file", domain.ErrUnsupportedFormat, detectedType, ext)
	}

	return detected, nil
}
