package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"marksheet/internal/config"
	"marksheet/internal/domain"
	"marksheet/internal/port"
)

const defaultArchiveRetryDelay = 500 * time.Millisecond

// Archiver copies processed documents and their results to object storage.
type Archiver struct {
	storage    port.ObjectStorage
	cfg        *config.ArchiveConfig
	retryDelay time.Duration
}

// NewArchiver creates an Archiver.
func NewArchiver(storage port.ObjectStorage, cfg *config.ArchiveConfig) *Archiver {
	return NewArchiverWithDelay(storage, cfg, defaultArchiveRetryDelay)
}

// NewArchiverWithDelay creates an Archiver with a custom delay between upload retries (for testing).
func NewArchiverWithDelay(storage port.ObjectStorage, cfg *config.ArchiveConfig, retryDelay time.Duration) *Archiver {
	return &Archiver{storage: storage, cfg: cfg, retryDelay: retryDelay}
}

// ArchiveKeys returns the object keys used for a request's document and result.
func (a *Archiver) ArchiveKeys(requestID, fileName string) (documentKey, resultKey string) {
	base := path.Join(strings.Trim(a.cfg.Prefix, "/"), requestID)
	return path.Join(base, path.Base(fileName)), path.Join(base, "result.json")
}

// Archive uploads the source document and the JSON response.
func (a *Archiver) Archive(ctx context.Context, data []byte, resp *domain.MarksheetResponse) error {
	meta := resp.Extraction
	documentKey, resultKey := a.ArchiveKeys(meta.RequestID, meta.FileName)

	if err := a.upload(ctx, documentKey, domain.AllowedFileTypes[meta.FileType], data); err != nil {
		return err
	}

	result, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("%w: encoding result: %v", domain.ErrArchiveFailed, err)
	}
	return a.upload(ctx, resultKey, "application/json", result)
}

func (a *Archiver) upload(ctx context.Context, key, contentType string, body []byte) error {
	attempts := a.cfg.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	err := retry.Do(
		func() error {
			_, err := a.storage.Upload(ctx, port.UploadInput{
				Bucket:      a.cfg.Bucket,
				Key:         key,
				Body:        bytes.NewReader(body),
				ContentType: contentType,
				Size:        int64(len(body)),
			})
			return err
		},
		retry.Context(ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(a.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("service.Archiver: upload of %s failed (attempt %d): %v", key, n+1, err)
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrArchiveFailed, key, err)
	}
	return nil
}
