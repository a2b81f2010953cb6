package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/planboard-api/internal/board"
	"github.com/noah-isme/planboard-api/internal/models"
)

// boardSession is the in-memory state of one calendar: the optimistic board,
// per-collection pending counters and open drag gestures.
type boardSession struct {
	mu         sync.Mutex
	calendarID string
	board      *board.Board
	pending    map[models.Collection]int
	versions   map[models.Collection]uint64
	syncing    map[models.Collection]bool
	passes     map[models.Collection]chan struct{}
	lastSynced map[models.Collection]time.Time
	lastError  map[models.Collection]string
	drags      map[string]*board.Drag
	lastAccess time.Time

	ready   chan struct{}
	loadErr error
}

func newBoardSession(calendarID string, idFunc board.IDFunc) *boardSession {
	return &boardSession{
		calendarID: calendarID,
		board:      board.New(calendarID, idFunc),
		pending:    make(map[models.Collection]int),
		versions:   make(map[models.Collection]uint64),
		syncing:    make(map[models.Collection]bool),
		passes:     make(map[models.Collection]chan struct{}),
		lastSynced: make(map[models.Collection]time.Time),
		lastError:  make(map[models.Collection]string),
		drags:      make(map[string]*board.Drag),
		ready:      make(chan struct{}),
	}
}

// record counts one logical action against every collection it touched and
// returns those collections in sync order. Callers hold mu.
func (s *boardSession) record(refs []board.EntityRef) []models.Collection {
	touched := make(map[models.Collection]bool, len(refs))
	for _, ref := range refs {
		touched[ref.Collection()] = true
	}
	var out []models.Collection
	for _, collection := range models.Collections {
		if !touched[collection] {
			continue
		}
		s.pending[collection]++
		s.versions[collection]++
		out = append(out, collection)
	}
	return out
}

func (s *boardSession) state(collection models.Collection) models.SyncState {
	switch {
	case s.syncing[collection]:
		return models.SyncStateSyncing
	case s.pending[collection] > 0:
		return models.SyncStateDirty
	default:
		return models.SyncStateClean
	}
}

// status reports every collection. Callers hold mu.
func (s *boardSession) status() []models.CollectionStatus {
	out := make([]models.CollectionStatus, 0, len(models.Collections))
	for _, collection := range models.Collections {
		st := models.CollectionStatus{
			Collection:     collection,
			State:          s.state(collection),
			PendingChanges: s.pending[collection],
			LastError:      s.lastError[collection],
		}
		if ts, ok := s.lastSynced[collection]; ok {
			ts := ts
			st.LastSyncedAt = &ts
		}
		out = append(out, st)
	}
	return out
}

func (s *boardSession) pendingSnapshot() map[models.Collection]int {
	out := make(map[models.Collection]int, len(models.Collections))
	for _, collection := range models.Collections {
		out[collection] = s.pending[collection]
	}
	return out
}

func (s *boardSession) idle() bool {
	if len(s.drags) > 0 {
		return false
	}
	for _, collection := range models.Collections {
		if s.pending[collection] > 0 || s.syncing[collection] {
			return false
		}
	}
	return true
}

// touch records an access. Sessions still loading are skipped: Sweep ignores
// them and load stamps lastAccess when it finishes.
func (s *boardSession) touch(now time.Time) {
	select {
	case <-s.ready:
	default:
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = now
}

func (s *boardSession) evictable(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess.Before(cutoff) && s.idle()
}

// dirtyCollections lists the collections holding pending changes, in sync order.
func (s *boardSession) dirtyCollections() []models.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	var dirty []models.Collection
	for _, collection := range models.Collections {
		if s.pending[collection] > 0 {
			dirty = append(dirty, collection)
		}
	}
	return dirty
}

// awaitPass blocks until no pass is in flight for collection and returns what
// is still pending for it.
func (s *boardSession) awaitPass(ctx context.Context, collection models.Collection) (int, error) {
	for {
		s.mu.Lock()
		done, inFlight := s.passes[collection]
		pending := s.pending[collection]
		s.mu.Unlock()
		if !inFlight {
			return pending, nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return pending, ctx.Err()
		}
	}
}

// SessionStore keeps one boardSession per calendar, loading it from the
// persistence collaborator on first access.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*boardSession
	store    EntityStore
	idFunc   board.IDFunc
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewSessionStore constructs a session store. A nil idFunc uses random UUIDs.
func NewSessionStore(store EntityStore, idFunc board.IDFunc, metrics *MetricsService, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		sessions: make(map[string]*boardSession),
		store:    store,
		idFunc:   idFunc,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *SessionStore) get(ctx context.Context, calendarID string) (*boardSession, error) {
	s.mu.Lock()
	sess, ok := s.sessions[calendarID]
	if ok {
		// refreshed under s.mu so a concurrent Sweep cannot evict it first
		sess.touch(s.now())
	} else {
		sess = newBoardSession(calendarID, s.idFunc)
		s.sessions[calendarID] = sess
	}
	s.mu.Unlock()

	if ok {
		select {
		case <-sess.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if sess.loadErr != nil {
			return nil, sess.loadErr
		}
		return sess, nil
	}

	err := s.load(ctx, sess)
	if err != nil {
		sess.loadErr = err
		s.mu.Lock()
		delete(s.sessions, calendarID)
		s.mu.Unlock()
	} else {
		s.metrics.SessionOpened()
	}
	close(sess.ready)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SessionStore) load(ctx context.Context, sess *boardSession) error {
	start := s.now()
	loaded, err := loadCollections(ctx, s.store, sess.calendarID, models.Collections)
	if err != nil {
		return fmt.Errorf("load board %s: %w", sess.calendarID, err)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	for _, collection := range models.Collections {
		if err := sess.board.Replace(collection, loaded[collection]); err != nil {
			return fmt.Errorf("decode board %s: %w", sess.calendarID, err)
		}
		sess.lastSynced[collection] = start
	}
	sess.lastAccess = s.now()
	s.logger.Info("board loaded", zap.String("calendar_id", sess.calendarID), zap.Duration("took", s.now().Sub(start)))
	return nil
}

// Sweep drops boards idle for longer than maxIdle that hold no unsynced work.
func (s *SessionStore) Sweep(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, sess := range s.sessions {
		select {
		case <-sess.ready:
		default:
			continue
		}
		if sess.evictable(cutoff) {
			delete(s.sessions, id)
			s.metrics.SessionClosed()
			evicted++
		}
	}
	return evicted
}

// RunSweeper evicts idle boards every interval until ctx is done.
func (s *SessionStore) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 || maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(maxIdle); n > 0 {
				s.logger.Debug("evicted idle boards", zap.Int("count", n))
			}
		}
	}
}

// Len returns the number of boards in memory.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Dirty lists the loaded calendars that still hold unsynced changes.
func (s *SessionStore) Dirty() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, sess := range s.sessions {
		select {
		case <-sess.ready:
		default:
			continue
		}
		if len(sess.dirtyCollections()) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
