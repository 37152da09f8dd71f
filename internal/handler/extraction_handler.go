package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"marksheet/internal/domain"
	"marksheet/internal/export"
	"marksheet/internal/service"
)

// Export formats accepted by the export endpoint.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExtractionHandler handles marksheet extraction endpoints.
type ExtractionHandler struct {
	extractionService service.ExtractionService
}

// NewExtractionHandler creates a new ExtractionHandler.
func NewExtractionHandler(extractionService service.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{extractionService: extractionService}
}

// Extract handles POST /extract and POST /api/v1/extract
// @Summary Extract a marksheet
// @Description Upload a marksheet (PDF, JPG, PNG) and receive the structured record with confidence scores
// @Tags extraction
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Marksheet to extract (PDF, JPG, or PNG)"
// @Success 200 {object} APIResponse{data=domain.MarksheetResponse} "Extraction result"
// @Failure 400 {object} APIResponse "Missing file or unsupported type"
// @Failure 413 {object} APIResponse "File too large"
// @Failure 422 {object} APIResponse "No readable text"
// @Failure 500 {object} APIResponse "Extraction failed"
// @Router /extract [post]
func (h *ExtractionHandler) Extract(c *gin.Context) {
	resp, ok := h.run(c)
	if !ok {
		return
	}
	RespondOK(c, resp)
}

// Export handles POST /api/v1/extract/export?format=xlsx|csv
// @Summary Extract a marksheet as a spreadsheet
// @Description Runs the same pipeline as /extract and returns the record as XLSX (default) or CSV
// @Tags extraction
// @Accept multipart/form-data
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,text/csv
// @Param file formData file true "Marksheet to extract (PDF, JPG, or PNG)"
// @Param format query string false "Export format: xlsx or csv"
// @Success 200 {file} file "Spreadsheet"
// @Failure 400 {object} APIResponse "Missing file, unsupported type or unknown format"
// @Failure 413 {object} APIResponse "File too large"
// @Failure 422 {object} APIResponse "No readable text"
// @Failure 500 {object} APIResponse "Extraction failed"
// @Router /extract/export [post]
func (h *ExtractionHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", FormatXLSX))
	if format != FormatXLSX && format != FormatCSV {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be xlsx or csv")
		return
	}

	resp, ok := h.run(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	contentType := xlsxContentType
	var err error
	if format == FormatCSV {
		contentType = "text/csv; charset=utf-8"
		err = export.WriteCSV(&buf, resp)
	} else {
		err = export.WriteXLSX(&buf, resp)
	}
	if err != nil {
		HandleError(c, fmt.Errorf("export %s: %w", format, err))
		return
	}

	filename := export.BuildFilename(resp.Extraction.FileName, format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// run reads the uploaded file and runs the extraction pipeline. On failure the
// error response has already been written.
func (h *ExtractionHandler) run(c *gin.Context) (*domain.MarksheetResponse, bool) {
	requestID := c.GetString("request_id")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			HandleError(c, domain.ErrFileTooLarge)
			return nil, false
		}
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return nil, false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Printf("[%s] ExtractionHandler: reading upload %q: %v", requestID, header.Filename, err)
		RespondError(c, http.StatusBadRequest, "INVALID_UPLOAD", "could not read uploaded file")
		return nil, false
	}

	resp, err := h.extractionService.Extract(c.Request.Context(), service.ExtractInput{
		RequestID: requestID,
		FileName:  header.Filename,
		Data:      data,
	})
	if err != nil {
		HandleError(c, err)
		return nil, false
	}
	return resp, true
}
