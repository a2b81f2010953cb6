package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

type syncServiceMock struct {
	collection models.Collection
	err        error
}

func (m *syncServiceMock) SyncCollection(ctx context.Context, calendarID string, collection models.Collection) (*models.SyncResult, error) {
	m.collection = collection
	if m.err != nil {
		return nil, m.err
	}
	return &models.SyncResult{Collection: collection, Upserted: 2, Replaced: true}, nil
}

func (m *syncServiceMock) SyncAll(ctx context.Context, calendarID string) ([]models.SyncResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []models.SyncResult{{Collection: models.CollectionCalendar, Upserted: 1, Replaced: true}}, nil
}

func TestSyncHandlerSyncCollection(t *testing.T) {
	svc := &syncServiceMock{}
	handler := NewSyncHandler(svc, &boardServiceMock{})
	c, w := newSessionContext(http.MethodPost, "/board/sync/people", nil)
	c.Params = gin.Params{{Key: "collection", Value: "people"}}

	handler.SyncCollection(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.CollectionPeople, svc.collection)
	data := string(decodeEnvelope(t, w)["data"])
	assert.Contains(t, data, `"results"`)
	assert.Contains(t, data, `"status"`)
}

func TestSyncHandlerFailureSurfacesBadGateway(t *testing.T) {
	svc := &syncServiceMock{err: appErrors.Cause(appErrors.ErrSyncFailure, assert.AnError, "")}
	handler := NewSyncHandler(svc, &boardServiceMock{})
	c, w := newSessionContext(http.MethodPost, "/board/sync", nil)

	handler.SyncAll(c)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "SYNC_FAILED")
}
