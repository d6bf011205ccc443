package handler

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/ingest"
	"pdfchat/internal/pkg/response"
)

// Ingestor runs the upload pipeline. Satisfied by ingest.Service.
type Ingestor interface {
	IngestPDF(ctx context.Context, filename string, r io.Reader) (*ingest.Result, error)
}

type DocumentHandler struct {
	ingestor    Ingestor
	maxBodySize int64
}

func NewDocumentHandler(ingestor Ingestor, maxBodySize int64) *DocumentHandler {
	return &DocumentHandler{ingestor: ingestor, maxBodySize: maxBodySize}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	if h.maxBodySize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodySize)
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_file", "file is required")
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		response.Error(c, http.StatusBadRequest, "invalid_file", "only pdf files are accepted")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid_file", "failed to open file")
		return
	}
	defer opened.Close()

	result, err := h.ingestor.IngestPDF(c.Request.Context(), filepath.Base(file.Filename), opened)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
