// Package app assembles the extraction pipeline from configuration. It is shared
// by the HTTP server and the command-line tool.
package app

import (
	"fmt"
	"log"

	"marksheet/internal/config"
	"marksheet/internal/ocr"
	"marksheet/internal/parser"
	"marksheet/internal/service"
	s3storage "marksheet/internal/storage/s3"

	// Model providers register themselves with the parser factory.
	_ "marksheet/internal/parser/claude"
	_ "marksheet/internal/parser/gemini"
	_ "marksheet/internal/parser/openai"
)

// NewExtractionService wires the OCR extractor, the model invoker chain, the
// orchestrator and the optional S3 archive into an ExtractionService.
func NewExtractionService(cfg *config.Config) (service.ExtractionService, error) {
	invoker, err := parser.NewInvokerChain(cfg.Model.ProviderConfigs())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize model provider: %w", err)
	}
	orchestrator := parser.NewOrchestrator(invoker, cfg.Extraction.RetryDelay)

	extractor := ocr.NewExtractor(&cfg.OCR)

	var archiver *service.Archiver
	if cfg.Archive.Enabled {
		storage, err := s3storage.NewS3Client(&cfg.Archive)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		archiver = service.NewArchiver(storage, &cfg.Archive)
		log.Printf("app: archiving to s3://%s/%s", cfg.Archive.Bucket, cfg.Archive.Prefix)
	}

	return service.NewExtractionService(extractor, orchestrator, archiver, &cfg.Upload), nil
}
