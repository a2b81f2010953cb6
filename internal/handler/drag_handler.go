package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/planboard-api/internal/board"
	"github.com/noah-isme/planboard-api/internal/dto"
	"github.com/noah-isme/planboard-api/pkg/response"
)

type dragService interface {
	StartDrag(ctx context.Context, calendarID string, req dto.StartDragRequest) (*board.Drag, error)
	DragOver(ctx context.Context, calendarID, dragID string, req dto.DragOverRequest) (*board.Preview, error)
	EndDrag(ctx context.Context, calendarID, dragID string, req dto.DragEndRequest) (*dto.MutationResponse, error)
	CancelDrag(ctx context.Context, calendarID, dragID string) error
}

// DragHandler drives drag gestures through start, over, end and cancel.
type DragHandler struct {
	service dragService
}

// NewDragHandler constructs a drag handler.
func NewDragHandler(svc dragService) *DragHandler {
	return &DragHandler{service: svc}
}

// Start godoc
// @Summary Start drag
// @Tags Gestures
// @Accept json
// @Produce json
// @Param payload body dto.StartDragRequest true "Dragged item"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /board/drags [post]
func (h *DragHandler) Start(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	var req dto.StartDragRequest
	if !bindJSON(c, &req) {
		return
	}
	drag, err := h.service.StartDrag(c.Request.Context(), calID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, drag)
}

// Over godoc
// @Summary Hover
// @Description Resolves the drop target under the pointer and previews the outcome without changing the board
// @Tags Gestures
// @Accept json
// @Produce json
// @Param id path string true "Drag ID"
// @Param payload body dto.DragOverRequest true "Pointer sample"
// @Success 200 {object} response.Envelope
// @Router /board/drags/{id}/over [post]
func (h *DragHandler) Over(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	var req dto.DragOverRequest
	if !bindJSON(c, &req) {
		return
	}
	preview, err := h.service.DragOver(c.Request.Context(), calID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview)
}

// End godoc
// @Summary End drag
// @Tags Gestures
// @Accept json
// @Produce json
// @Param id path string true "Drag ID"
// @Param payload body dto.DragEndRequest true "Drop"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /board/drags/{id}/end [post]
func (h *DragHandler) End(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	var req dto.DragEndRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	res, err := h.service.EndDrag(c.Request.Context(), calID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondMutation(c, http.StatusOK, res)
}

// Cancel discards a gesture.
func (h *DragHandler) Cancel(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	if err := h.service.CancelDrag(c.Request.Context(), calID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
