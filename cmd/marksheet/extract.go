package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"marksheet/internal/app"
	"marksheet/internal/config"
	"marksheet/internal/domain"
	"marksheet/internal/export"
	"marksheet/internal/service"
)

var (
	xlsxPath string
	csvPath  string
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract a marksheet and print the JSON result",
	Long: `Extract runs the full pipeline on a local file. The JSON response is printed
to stdout unless --xlsx or --csv is given, in which case the record is written
to that path as a spreadsheet.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write the result as an XLSX workbook to this path")
	extractCmd.Flags().StringVar(&csvPath, "csv", "", "write the result as CSV to this path")
	extractCmd.MarkFlagsMutuallyExclusive("xlsx", "csv")
}

func runExtract(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	svc, err := app.NewExtractionService(cfg)
	if err != nil {
		return err
	}

	resp, err := svc.Extract(cmd.Context(), service.ExtractInput{
		RequestID: uuid.New().String(),
		FileName:  filepath.Base(path),
		Data:      data,
	})
	if err != nil {
		return err
	}

	switch {
	case xlsxPath != "":
		return writeFile(xlsxPath, resp, export.WriteXLSX)
	case csvPath != "":
		return writeFile(csvPath, resp, export.WriteCSV)
	default:
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
}

func writeFile(path string, resp *domain.MarksheetResponse, write func(io.Writer, *domain.MarksheetResponse) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f, resp); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
