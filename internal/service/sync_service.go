package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

const (
	syncResultOK        = "ok"
	syncResultFailed    = "failed"
	syncResultCoalesced = "coalesced"
)

// SyncService pushes local collection state to persistence and reconciles the
// board with the canonical records returned.
type SyncService struct {
	sessions *SessionStore
	store    EntityStore
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewSyncService constructs the sync engine.
func NewSyncService(sessions *SessionStore, store EntityStore, metrics *MetricsService, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{sessions: sessions, store: store, metrics: metrics, logger: logger, now: time.Now}
}

// SyncCollection runs one pass for a collection. A pass requested while another
// is in flight for the same collection is coalesced into it. On failure the
// local state and the pending count are kept so a later pass can retry.
func (s *SyncService) SyncCollection(ctx context.Context, calendarID string, collection models.Collection) (*models.SyncResult, error) {
	if !collection.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown collection %q", collection))
	}
	sess, err := s.sessions.get(ctx, calendarID)
	if err != nil {
		return nil, err
	}

	pass, err := beginPass(sess, collection)
	if err != nil {
		return nil, err
	}
	if pass.coalesced != nil {
		s.metrics.ObserveSync(collection, syncResultCoalesced, 0)
		return pass.coalesced, nil
	}
	entities, version, sent := pass.entities, pass.version, pass.sent

	start := s.now()
	logger := s.logger.With(zap.String("calendar_id", calendarID), zap.String("collection", string(collection)))
	logger.Debug("sync started", zap.Int("entities", len(entities)), zap.Int("pending", sent))

	result := &models.SyncResult{Collection: collection}
	canonical, err := s.push(ctx, calendarID, collection, entities, result)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.syncing[collection] = false
	if done, ok := sess.passes[collection]; ok {
		close(done)
		delete(sess.passes, collection)
	}

	if err == nil && sess.versions[collection] == version {
		if err = sess.board.Replace(collection, canonical); err == nil {
			result.Replaced = true
		}
	}
	if err != nil {
		sess.lastError[collection] = appErrors.ErrSyncFailure.Message
		result.Pending = sess.pending[collection]
		s.metrics.ObserveSync(collection, syncResultFailed, s.now().Sub(start))
		logger.Warn("sync failed", zap.Int("pending", result.Pending), zap.Error(err))
		return result, appErrors.Wrap(err, appErrors.ErrSyncFailure.Code, appErrors.ErrSyncFailure.Status, appErrors.ErrSyncFailure.Message)
	}

	// edits made during the pass stay local and pending for the next one
	synced := sent
	if result.Replaced {
		synced = sess.pending[collection]
	}
	sess.pending[collection] -= synced
	if sess.pending[collection] < 0 {
		synced += sess.pending[collection]
		sess.pending[collection] = 0
	}
	s.metrics.AddPending(collection, -synced)
	delete(sess.lastError, collection)
	sess.lastSynced[collection] = s.now()
	result.Pending = sess.pending[collection]

	s.metrics.ObserveSync(collection, syncResultOK, s.now().Sub(start))
	logger.Info("sync finished",
		zap.Int("upserted", result.Upserted),
		zap.Int("deleted", result.Deleted),
		zap.Bool("replaced", result.Replaced),
		zap.Int("pending", result.Pending),
	)
	return result, nil
}

type passStart struct {
	entities  []models.Entity
	version   uint64
	sent      int
	coalesced *models.SyncResult
}

// beginPass marks collection as syncing and snapshots what to send, or reports
// the pass as coalesced into one already in flight.
func beginPass(sess *boardSession, collection models.Collection) (passStart, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.syncing[collection] {
		return passStart{coalesced: &models.SyncResult{Collection: collection, Coalesced: true, Pending: sess.pending[collection]}}, nil
	}
	entities, err := sess.board.Encode(collection)
	if err != nil {
		return passStart{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode board")
	}
	sess.syncing[collection] = true
	sess.passes[collection] = make(chan struct{})
	return passStart{entities: entities, version: sess.versions[collection], sent: sess.pending[collection]}, nil
}

// push sends deletes and upserts, then reads the canonical set back.
func (s *SyncService) push(ctx context.Context, calendarID string, collection models.Collection, entities []models.Entity, result *models.SyncResult) ([]models.Entity, error) {
	for _, entity := range entities {
		if entity.SoftDeleted {
			if err := s.store.Delete(ctx, calendarID, entity.ID); err != nil {
				return nil, fmt.Errorf("delete %s %s: %w", entity.Type, entity.ID, err)
			}
			result.Deleted++
			continue
		}
		if _, err := s.store.Upsert(ctx, calendarID, entity); err != nil {
			return nil, fmt.Errorf("upsert %s %s: %w", entity.Type, entity.ID, err)
		}
		result.Upserted++
	}
	loaded, err := loadCollections(ctx, s.store, calendarID, []models.Collection{collection})
	if err != nil {
		return nil, err
	}
	return loaded[collection], nil
}

// SyncAll syncs every collection holding pending changes. All collections are
// attempted; the first failure is returned alongside the results.
func (s *SyncService) SyncAll(ctx context.Context, calendarID string) ([]models.SyncResult, error) {
	return s.syncDirty(ctx, calendarID, s.SyncCollection)
}

func (s *SyncService) syncDirty(ctx context.Context, calendarID string, syncFn func(context.Context, string, models.Collection) (*models.SyncResult, error)) ([]models.SyncResult, error) {
	sess, err := s.sessions.get(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	dirty := sess.dirtyCollections()

	results := make([]models.SyncResult, 0, len(dirty))
	var firstErr error
	for _, collection := range dirty {
		result, err := syncFn(ctx, calendarID, collection)
		if result != nil {
			results = append(results, *result)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return results, firstErr
}

// settle syncs collection and, when the request is coalesced into a pass in
// flight, waits for that pass and retries until nothing is left pending.
func (s *SyncService) settle(ctx context.Context, calendarID string, collection models.Collection) (*models.SyncResult, error) {
	for {
		result, err := s.SyncCollection(ctx, calendarID, collection)
		if err != nil || !result.Coalesced {
			return result, err
		}
		sess, err := s.sessions.get(ctx, calendarID)
		if err != nil {
			return result, err
		}
		pending, err := sess.awaitPass(ctx, collection)
		if err != nil {
			return result, appErrors.Wrap(err, appErrors.ErrSyncFailure.Code, appErrors.ErrSyncFailure.Status, appErrors.ErrSyncFailure.Message)
		}
		if pending == 0 {
			return &models.SyncResult{Collection: collection}, nil
		}
	}
}

// Flush syncs every loaded board with pending changes, typically on shutdown.
// Passes already in flight are waited for rather than coalesced. Boards that
// fail keep their pending counters and are reported in the error.
func (s *SyncService) Flush(ctx context.Context) (int, error) {
	flushed := 0
	var errs []error
	for _, calendarID := range s.sessions.Dirty() {
		results, err := s.syncDirty(ctx, calendarID, s.settle)
		flushed += len(results)
		if err != nil {
			s.logger.Warn("unsaved changes left on shutdown", zap.String("calendar_id", calendarID), zap.Error(err))
			errs = append(errs, fmt.Errorf("flush %s: %w", calendarID, err))
		}
	}
	return flushed, errors.Join(errs...)
}
