package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/planboard-api/internal/dto"
	"github.com/noah-isme/planboard-api/internal/service"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
	"github.com/noah-isme/planboard-api/pkg/response"
)

type exportService interface {
	ExportMonth(ctx context.Context, calendarID string, req dto.ExportMonthRequest) (*service.ExportResult, error)
}

// ExportHandler serves month exports of the board.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Month godoc
// @Summary Export month
// @Description Downloads the events and day cell items of a month as CSV or PDF, or its events as iCalendar
// @Tags Board
// @Produce text/csv
// @Produce application/pdf
// @Produce text/calendar
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Param format query string false "csv (default), pdf or ics"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /board/export [get]
func (h *ExportHandler) Month(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	var req dto.ExportMonthRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query"))
		return
	}
	result, err := h.service.ExportMonth(c.Request.Context(), calID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Body)
}
