package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/planboard-api/internal/dto"
	"github.com/noah-isme/planboard-api/internal/models"
	"github.com/noah-isme/planboard-api/pkg/response"
)

type authService interface {
	CreateCalendar(ctx context.Context, req dto.CreateCalendarRequest) (*models.Calendar, error)
	OpenSession(ctx context.Context, calendarID string, req dto.OpenSessionRequest) (*models.SessionToken, error)
	RenameCalendar(ctx context.Context, calendarID string, req dto.RenameCalendarRequest) (*models.Calendar, error)
}

// AuthHandler wires calendar creation and session endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// CreateCalendar godoc
// @Summary Create calendar
// @Description Registers a calendar protected by a passcode
// @Tags Calendars
// @Accept json
// @Produce json
// @Param payload body dto.CreateCalendarRequest true "Calendar payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendars [post]
func (h *AuthHandler) CreateCalendar(c *gin.Context) {
	var req dto.CreateCalendarRequest
	if !bindJSON(c, &req) {
		return
	}
	calendar, err := h.service.CreateCalendar(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, calendar)
}

// OpenSession godoc
// @Summary Open calendar session
// @Description Exchanges the calendar passcode for a bearer token scoped to the calendar
// @Tags Calendars
// @Accept json
// @Produce json
// @Param id path string true "Calendar ID"
// @Param payload body dto.OpenSessionRequest true "Passcode"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /calendars/{id}/sessions [post]
func (h *AuthHandler) OpenSession(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.service.OpenSession(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session)
}

// RenameCalendar updates the session calendar's name.
func (h *AuthHandler) RenameCalendar(c *gin.Context) {
	calID, ok := calendarID(c)
	if !ok {
		return
	}
	var req dto.RenameCalendarRequest
	if !bindJSON(c, &req) {
		return
	}
	calendar, err := h.service.RenameCalendar(c.Request.Context(), calID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calendar)
}
