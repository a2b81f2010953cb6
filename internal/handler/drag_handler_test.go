package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planboard-api/internal/board"
	"github.com/noah-isme/planboard-api/internal/dto"
	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

type dragServiceMock struct {
	endReq    dto.DragEndRequest
	endCalled bool
	cancelled string
	err       error
}

func (m *dragServiceMock) StartDrag(ctx context.Context, calendarID string, req dto.StartDragRequest) (*board.Drag, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &board.Drag{ID: "drag-1", ItemID: req.ItemID}, nil
}

func (m *dragServiceMock) DragOver(ctx context.Context, calendarID, dragID string, req dto.DragOverRequest) (*board.Preview, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &board.Preview{}, nil
}

func (m *dragServiceMock) EndDrag(ctx context.Context, calendarID, dragID string, req dto.DragEndRequest) (*dto.MutationResponse, error) {
	m.endCalled = true
	m.endReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.MutationResponse{Result: &board.Outcome{Changed: true}, Pending: map[models.Collection]int{models.CollectionCalendar: 1}}, nil
}

func (m *dragServiceMock) CancelDrag(ctx context.Context, calendarID, dragID string) error {
	m.cancelled = dragID
	return m.err
}

func TestDragHandlerStart(t *testing.T) {
	handler := NewDragHandler(&dragServiceMock{})
	body, _ := json.Marshal(dto.StartDragRequest{ItemID: "n1"})
	c, w := newSessionContext(http.MethodPost, "/board/drags", body)

	handler.Start(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, string(decodeEnvelope(t, w)["data"]), "drag-1")
}

func TestDragHandlerEndAcceptsEmptyBody(t *testing.T) {
	svc := &dragServiceMock{}
	handler := NewDragHandler(svc)
	c, w := newSessionContext(http.MethodPost, "/board/drags/drag-1/end", nil)
	c.Params = gin.Params{{Key: "id", Value: "drag-1"}}

	handler.End(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.endCalled)
	assert.Equal(t, dto.DragEndRequest{}, svc.endReq)
	assert.Equal(t, "1", w.Header().Get(PendingChangesHeader))
}

func TestDragHandlerEndRejected(t *testing.T) {
	svc := &dragServiceMock{err: appErrors.Clone(appErrors.ErrInvalidPlacement, "events cannot be dropped here")}
	handler := NewDragHandler(svc)
	body, _ := json.Marshal(dto.DragEndRequest{TargetContainerID: "group:g1"})
	c, w := newSessionContext(http.MethodPost, "/board/drags/drag-1/end", body)
	c.Params = gin.Params{{Key: "id", Value: "drag-1"}}

	handler.End(c)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "group:g1", svc.endReq.TargetContainerID)
}

func TestDragHandlerCancel(t *testing.T) {
	svc := &dragServiceMock{}
	handler := NewDragHandler(svc)
	c, w := newSessionContext(http.MethodDelete, "/board/drags/drag-9", nil)
	c.Params = gin.Params{{Key: "id", Value: "drag-9"}}

	handler.Cancel(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "drag-9", svc.cancelled)

	svc.err = appErrors.ErrDragNotFound
	c, w = newSessionContext(http.MethodDelete, "/board/drags/drag-9", nil)
	handler.Cancel(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
