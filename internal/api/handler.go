package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"calibrator.backend/internal/apperr"
	"calibrator.backend/internal/pipeline"
	"calibrator.backend/pkg/logger"
	"calibrator.backend/pkg/metrics"
)

// QuoteHandler wires POST /quote to a *pipeline.Pipeline (C7).
type QuoteHandler struct {
	pipeline *pipeline.Pipeline
}

// NewQuoteHandler builds a QuoteHandler over an already-constructed pipeline.
func NewQuoteHandler(p *pipeline.Pipeline) *QuoteHandler {
	return &QuoteHandler{pipeline: p}
}

// Quote handles POST /quote per §4.8/§6: parse and validate the request
// body, run the pipeline, and translate the result (or a fatal failure)
// into the wire response shape.
func (h *QuoteHandler) Quote(c *gin.Context) {
	start := time.Now()

	var dto quoteRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		writeError(c, apperr.NewKindError(apperr.KindSchemaViolation, err.Error(), err))
		metrics.RecordQuoteRequest(string(apperr.KindSchemaViolation), time.Since(start))
		return
	}

	req, err := dto.toPipelineRequest()
	if err != nil {
		writeError(c, err)
		metrics.RecordQuoteRequest(statusLabel(err), time.Since(start))
		return
	}

	pair := fmt.Sprintf("%d->%d", req.InputToken.ChainID, req.OutputToken.ChainID)
	ctx := context.WithValue(c.Request.Context(), logger.ChainPairKey, pair)
	c.Request = c.Request.WithContext(ctx)

	resp, err := h.pipeline.Quote(ctx, req)
	if err != nil {
		writeError(c, err)
		metrics.RecordQuoteRequest(statusLabel(err), time.Since(start))
		return
	}

	metrics.RecordQuoteRequest("ok", time.Since(start))
	c.JSON(http.StatusOK, fromPipelineResponse(resp))
}

func statusLabel(err error) string {
	if appErr, ok := apperr.As(err); ok && appErr.Kind != "" {
		return string(appErr.Kind)
	}
	return string(apperr.KindInternal)
}

// writeError renders err as a {"code","message"} envelope, using
// apperr.AppError for the status/code/message triple.
func writeError(c *gin.Context, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		appErr = apperr.InternalError(err)
	}
	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}
