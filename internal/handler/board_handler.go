package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/planboard-api/internal/dto"
	"github.com/noah-isme/planboard-api/internal/models"
	"github.com/noah-isme/planboard-api/pkg/response"
)

// PendingChangesHeader carries the total of unsynced changes after a mutation.
const PendingChangesHeader = "X-Pending-Changes"

type boardService interface {
	Board(ctx context.Context, calendarID string) (*dto.BoardResponse, error)
	Status(ctx context.Context, calendarID string) ([]models.CollectionStatus, error)
	AddItem(ctx context.Context, calendarID string, req dto.CreateItemRequest) (*dto.MutationResponse, error)
	EditItem(ctx context.Context, calendarID, itemID string, req dto.UpdateItemRequest) (*dto.MutationResponse, error)
	DeleteItem(ctx context.Context, calendarID, itemID string) (*dto.MutationResponse, error)
	SelectItem(ctx context.Context, calendarID, itemID string) (*dto.MutationResponse, error)
	ApplyDrop(ctx context.Context, calendarID string, req dto.DropRequest) (*dto.MutationResponse, error)
	AddPerson(ctx context.Context, calendarID string, req dto.CreatePersonRequest) (*dto.MutationResponse, error)
	RemovePerson(ctx context.Context, calendarID, personID string) (*dto.MutationResponse, error)
	AssignPerson(ctx context.Context, calendarID, itemID string, req dto.AssignPersonRequest) (*dto.MutationResponse, error)
	UnassignPerson(ctx context.Context, calendarID, itemID, personID string) (*dto.MutationResponse, error)
	CreateTemplate(ctx context.Context, calendarID string, req dto.CreateTemplateRequest) (*dto.MutationResponse, error)
	ApplyTemplate(ctx context.Context, calendarID, templateID string, req dto.ApplyTemplateRequest) (*dto.MutationResponse, error)
}

// BoardHandler exposes the board and its item, people and template actions.
type BoardHandler struct {
	service boardService
}

// NewBoardHandler constructs a board handler.
func NewBoardHandler(svc boardService) *BoardHandler {
	return &BoardHandler{service: svc}
}

func respondMutation(c *gin.Context, status int, res *dto.MutationResponse) {
	total := 0
	for _, n := range res.Pending {
		total += n
	}
	c.Header(PendingChangesHeader, strconv.Itoa(total))
	response.JSON(c, status, res.Result, map[string]interface{}{"pending_changes": res.Pending})
}

// Get godoc
// @Summary Get board
// @Description Returns the optimistic board of the session's calendar, loading it from storage on first access
// @Tags Board
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /board [get]
func (h *BoardHandler) Get(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	res, err := h.service.Board(c.Request.Context(), calID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// Status godoc
// @Summary Sync status
// @Description Per-collection state (clean, dirty, syncing) and pending change counts
// @Tags Board
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /board/status [get]
func (h *BoardHandler) Status(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	status, err := h.service.Status(c.Request.Context(), calID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}

// CreateItem godoc
// @Summary Create item
// @Tags Board
// @Accept json
// @Produce json
// @Param payload body dto.CreateItemRequest true "Item payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /board/items [post]
func (h *BoardHandler) CreateItem(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	var req dto.CreateItemRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.AddItem(c.Request.Context(), calID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondMutation(c, http.StatusCreated, res)
}

// UpdateItem godoc
// @Summary Edit item content or colour
// @Tags Board
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param payload body dto.UpdateItemRequest true "Patch"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /board/items/{id} [patch]
func (h *BoardHandler) UpdateItem(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.EditItem(c.Request.Context(), calID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondMutation(c, http.StatusOK, res)
}

// DeleteItem godoc
// @Summary Delete item
// @Tags Board
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /board/items/{id} [delete]
func (h *BoardHandler) DeleteItem(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	res, err := h.service.DeleteItem(c.Request.Context(), calID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondMutation(c, http.StatusOK, res)
}

// BringToFront godoc
// @Summary Select item
// @Description Raises the item to the front of its container
// @Tags Board
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /board/items/{id}/front [post]
func (h *BoardHandler) BringToFront(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	res, err := h.service.SelectItem(c.Request.Context(), calID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondMutation(c, http.StatusOK, res)
}

// Drop godoc
// @Summary Apply a drop
// @Description Applies a complete terminal drag intent in one call
// @Tags Gestures
// @Accept json
// @Produce json
// @Param payload body dto.DropRequest true "Drag intent"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /board/drops [post]
func (h *BoardHandler) Drop(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	var req dto.DropRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.ApplyDrop(c.Request.Context(), calID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondMutation(c, http.StatusOK, res)
}

// CreatePerson godoc
// @Summary Add person
// @Tags People
// @Accept json
// @Produce json
// @Param payload body dto.CreatePersonRequest true "Person"
// @Success 201 {object} response.Envelope
// @Router /board/people [post]
func (h *BoardHandler) CreatePerson(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	var req dto.CreatePersonRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.AddPerson(c.Request.Context(), calID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondMutation(c, http.StatusCreated, res)
}

// DeletePerson removes a person and their tags.
func (h *BoardHandler) DeletePerson(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	res, err := h.service.RemovePerson(c.Request.Context(), calID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondMutation(c, http.StatusOK, res)
}

// AssignPerson tags a person on an item.
func (h *BoardHandler) AssignPerson(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	var req dto.AssignPersonRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.AssignPerson(c.Request.Context(), calID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondMutation(c, http.StatusOK, res)
}

// UnassignPerson removes a person tag from an item.
func (h *BoardHandler) UnassignPerson(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	res, err := h.service.UnassignPerson(c.Request.Context(), calID, c.Param("id"), c.Param("personId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondMutation(c, http.StatusOK, res)
}

// CreateTemplate godoc
// @Summary Create weekly template
// @Tags Templates
// @Accept json
// @Produce json
// @Param payload body dto.CreateTemplateRequest true "Template"
// @Success 201 {object} response.Envelope
// @Router /board/templates [post]
func (h *BoardHandler) CreateTemplate(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	var req dto.CreateTemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.CreateTemplate(c.Request.Context(), calID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondMutation(c, http.StatusCreated, res)
}

// ApplyTemplate godoc
// @Summary Apply template to a week
// @Description Merges the template's sections into the schedule of an ISO week, creating it if needed
// @Tags Templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param payload body dto.ApplyTemplateRequest true "Target week"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /board/templates/{id}/apply [post]
func (h *BoardHandler) ApplyTemplate(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	var req dto.ApplyTemplateRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.service.ApplyTemplate(c.Request.Context(), calID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondMutation(c, http.StatusOK, res)
}
