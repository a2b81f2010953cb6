package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planboard-api/internal/board"
	"github.com/noah-isme/planboard-api/internal/dto"
	"github.com/noah-isme/planboard-api/internal/middleware"
	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

type boardServiceMock struct {
	lastCalendar string
	lastItemID   string
	created      dto.CreateItemRequest
	pending      map[models.Collection]int
	err          error
}

func (m *boardServiceMock) mutation(calendarID string, result interface{}) (*dto.MutationResponse, error) {
	m.lastCalendar = calendarID
	if m.err != nil {
		return nil, m.err
	}
	return &dto.MutationResponse{Result: result, Pending: m.pending}, nil
}

func (m *boardServiceMock) Board(ctx context.Context, calendarID string) (*dto.BoardResponse, error) {
	m.lastCalendar = calendarID
	if m.err != nil {
		return nil, m.err
	}
	return &dto.BoardResponse{Board: board.New(calendarID, nil), Palette: board.Palette()}, nil
}

func (m *boardServiceMock) Status(ctx context.Context, calendarID string) ([]models.CollectionStatus, error) {
	m.lastCalendar = calendarID
	return []models.CollectionStatus{{Collection: models.CollectionCalendar, State: models.SyncStateDirty, PendingChanges: 2}}, m.err
}

func (m *boardServiceMock) AddItem(ctx context.Context, calendarID string, req dto.CreateItemRequest) (*dto.MutationResponse, error) {
	m.created = req
	return m.mutation(calendarID, &board.MoveResult{Item: req.Item(), TargetContainerID: req.ContainerID})
}

func (m *boardServiceMock) EditItem(ctx context.Context, calendarID, itemID string, req dto.UpdateItemRequest) (*dto.MutationResponse, error) {
	m.lastItemID = itemID
	return m.mutation(calendarID, models.Item{ID: itemID})
}

func (m *boardServiceMock) DeleteItem(ctx context.Context, calendarID, itemID string) (*dto.MutationResponse, error) {
	m.lastItemID = itemID
	return m.mutation(calendarID, nil)
}

func (m *boardServiceMock) SelectItem(ctx context.Context, calendarID, itemID string) (*dto.MutationResponse, error) {
	m.lastItemID = itemID
	return m.mutation(calendarID, map[string]bool{"raised": true})
}

func (m *boardServiceMock) ApplyDrop(ctx context.Context, calendarID string, req dto.DropRequest) (*dto.MutationResponse, error) {
	m.lastItemID = req.ItemID
	return m.mutation(calendarID, &board.Outcome{Changed: true})
}

func (m *boardServiceMock) AddPerson(ctx context.Context, calendarID string, req dto.CreatePersonRequest) (*dto.MutationResponse, error) {
	return m.mutation(calendarID, models.Person{ID: "p1", Name: req.Name})
}

func (m *boardServiceMock) RemovePerson(ctx context.Context, calendarID, personID string) (*dto.MutationResponse, error) {
	return m.mutation(calendarID, nil)
}

func (m *boardServiceMock) AssignPerson(ctx context.Context, calendarID, itemID string, req dto.AssignPersonRequest) (*dto.MutationResponse, error) {
	m.lastItemID = itemID
	return m.mutation(calendarID, map[string]bool{"changed": true})
}

func (m *boardServiceMock) UnassignPerson(ctx context.Context, calendarID, itemID, personID string) (*dto.MutationResponse, error) {
	m.lastItemID = itemID
	return m.mutation(calendarID, map[string]bool{"changed": true})
}

func (m *boardServiceMock) CreateTemplate(ctx context.Context, calendarID string, req dto.CreateTemplateRequest) (*dto.MutationResponse, error) {
	return m.mutation(calendarID, &models.Template{ID: "t1", Name: req.Name})
}

func (m *boardServiceMock) ApplyTemplate(ctx context.Context, calendarID, templateID string, req dto.ApplyTemplateRequest) (*dto.MutationResponse, error) {
	return m.mutation(calendarID, dto.ApplyTemplateResponse{ScheduleKey: models.ScheduleKey(req.Year, req.Week), Added: 1})
}

func newSessionContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextSessionKey, &models.SessionClaims{CalendarID: "cal-1"})
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestBoardHandlerRequiresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBoardHandler(&boardServiceMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/board", nil)

	handler.Get(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBoardHandlerGetScopesToSessionCalendar(t *testing.T) {
	svc := &boardServiceMock{}
	handler := NewBoardHandler(svc)
	c, w := newSessionContext(http.MethodGet, "/board", nil)

	handler.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cal-1", svc.lastCalendar)
	assert.Contains(t, string(decodeEnvelope(t, w)["data"]), `"palette"`)
}

func TestBoardHandlerCreateItemReportsPendingChanges(t *testing.T) {
	svc := &boardServiceMock{pending: map[models.Collection]int{models.CollectionCalendar: 2, models.CollectionPeople: 1}}
	handler := NewBoardHandler(svc)
	body, _ := json.Marshal(dto.CreateItemRequest{ContainerID: "day:2024-05-03", ContentType: models.ContentTypeNote, Content: "hi"})
	c, w := newSessionContext(http.MethodPost, "/board/items", body)

	handler.CreateItem(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "3", w.Header().Get(PendingChangesHeader))
	assert.Equal(t, "day:2024-05-03", svc.created.ContainerID)

	var meta struct {
		PendingChanges map[string]int `json:"pending_changes"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w)["meta"], &meta))
	assert.Equal(t, 2, meta.PendingChanges["calendar"])
}

func TestBoardHandlerInvalidBody(t *testing.T) {
	handler := NewBoardHandler(&boardServiceMock{})
	c, w := newSessionContext(http.MethodPost, "/board/items", []byte(`invalid`))

	handler.CreateItem(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBoardHandlerMapsEngineErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"item", appErrors.Clone(appErrors.ErrItemNotFound, "item x not found"), http.StatusNotFound},
		{"container", appErrors.ErrContainerNotFound, http.StatusNotFound},
		{"placement", appErrors.ErrInvalidPlacement, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewBoardHandler(&boardServiceMock{err: tc.err})
			body, _ := json.Marshal(dto.DropRequest{ItemID: "x", TargetContainerID: "day:2024-05-03"})
			c, w := newSessionContext(http.MethodPost, "/board/drops", body)

			handler.Drop(c)
			assert.Equal(t, tc.status, w.Code)
			assert.Empty(t, w.Header().Get(PendingChangesHeader))
		})
	}
}

func TestBoardHandlerItemRoutesUsePathParams(t *testing.T) {
	svc := &boardServiceMock{pending: map[models.Collection]int{}}
	handler := NewBoardHandler(svc)

	c, w := newSessionContext(http.MethodPost, "/board/items/n1/front", nil)
	c.Params = gin.Params{{Key: "id", Value: "n1"}}
	handler.BringToFront(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "n1", svc.lastItemID)

	c, w = newSessionContext(http.MethodDelete, "/board/items/n2", nil)
	c.Params = gin.Params{{Key: "id", Value: "n2"}}
	handler.DeleteItem(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "n2", svc.lastItemID)
	assert.Equal(t, "0", w.Header().Get(PendingChangesHeader))
}
