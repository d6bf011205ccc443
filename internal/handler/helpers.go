package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"pdfchat/internal/ai"
	"pdfchat/internal/pkg/errs"
	"pdfchat/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, errs.ErrInvalid):
		response.Error(c, http.StatusBadRequest, "invalid", "invalid request")
	case errors.Is(err, errs.ErrNotFound):
		response.Error(c, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, errs.ErrNotIngested):
		response.Error(c, http.StatusConflict, "not_ingested", "no document has been ingested yet")
	case errors.Is(err, errs.ErrTooMany):
		response.Error(c, http.StatusTooManyRequests, "too_many_requests", "too many requests")
	case errors.Is(err, errs.ErrAIUnavailable), errors.Is(err, ai.ErrUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "ai_unavailable", "ai not configured")
	default:
		response.Error(c, http.StatusInternalServerError, "internal", "internal error")
	}
}
