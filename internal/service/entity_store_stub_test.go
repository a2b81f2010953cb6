package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planboard-api/internal/models"
)

type entityStoreStub struct {
	mu        sync.Mutex
	rows      map[string]models.Entity
	queryErr  error
	upsertErr error
	deleteErr error
	queries   int
	upserts   int
	deletes   int
	// beforeUpsert runs outside the lock ahead of each upsert.
	beforeUpsert func()
}

func newEntityStoreStub() *entityStoreStub {
	return &entityStoreStub{rows: make(map[string]models.Entity)}
}

func (s *entityStoreStub) Query(ctx context.Context, calendarID string, entityType models.EntityType) ([]models.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	var out []models.Entity
	for _, row := range s.rows {
		if row.CalendarID == calendarID && row.Type == entityType {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *entityStoreStub) Upsert(ctx context.Context, calendarID string, entity models.Entity) (*models.Entity, error) {
	if s.beforeUpsert != nil {
		s.beforeUpsert()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	s.upserts++
	entity.CalendarID = calendarID
	entity.SoftDeleted = false
	s.rows[calendarID+"/"+entity.ID] = entity
	return &entity, nil
}

func (s *entityStoreStub) Delete(ctx context.Context, calendarID, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletes++
	delete(s.rows, calendarID+"/"+entityID)
	return nil
}

func (s *entityStoreStub) setUpsertErr(err error) {
	s.mu.Lock()
	s.upsertErr = err
	s.mu.Unlock()
}

func (s *entityStoreStub) count(entityType models.EntityType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, row := range s.rows {
		if row.Type == entityType {
			n++
		}
	}
	return n
}

func (s *entityStoreStub) seed(t *testing.T, calendarID string, entityType models.EntityType, id string, payload interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[calendarID+"/"+id] = models.Entity{ID: id, CalendarID: calendarID, Type: entityType, Payload: raw}
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// newTestServices wires a session store, board service and sync service over
// the same stub store.
func newTestServices(store *entityStoreStub) (*SessionStore, *BoardService, *SyncService) {
	sessions := NewSessionStore(store, sequentialIDs(), nil, nil)
	return sessions, NewBoardService(sessions, nil, nil, nil), NewSyncService(sessions, store, nil, nil)
}
