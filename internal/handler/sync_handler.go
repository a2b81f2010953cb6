package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/planboard-api/internal/dto"
	"github.com/noah-isme/planboard-api/internal/models"
	"github.com/noah-isme/planboard-api/pkg/response"
)

type syncService interface {
	SyncCollection(ctx context.Context, calendarID string, collection models.Collection) (*models.SyncResult, error)
	SyncAll(ctx context.Context, calendarID string) ([]models.SyncResult, error)
}

type statusService interface {
	Status(ctx context.Context, calendarID string) ([]models.CollectionStatus, error)
}

// SyncHandler triggers sync passes on demand.
type SyncHandler struct {
	sync   syncService
	status statusService
}

// NewSyncHandler constructs a sync handler.
func NewSyncHandler(sync syncService, status statusService) *SyncHandler {
	return &SyncHandler{sync: sync, status: status}
}

// SyncAll godoc
// @Summary Sync all dirty collections
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /board/sync [post]
func (h *SyncHandler) SyncAll(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	results, err := h.sync.SyncAll(c.Request.Context(), calID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, calID, results)
}

// SyncCollection godoc
// @Summary Sync one collection
// @Tags Sync
// @Produce json
// @Param collection path string true "calendar, people, schedule or template"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /board/sync/{collection} [post]
func (h *SyncHandler) SyncCollection(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	result, err := h.sync.SyncCollection(c.Request.Context(), calID, models.Collection(c.Param("collection")))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.respond(c, calID, []models.SyncResult{*result})
}

func (h *SyncHandler) respond(c *gin.Context, calID string, results []models.SyncResult) {
	status, err := h.status.Status(c.Request.Context(), calID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.SyncResponse{Results: results, Status: status})
}
