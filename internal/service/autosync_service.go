package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/planboard-api/internal/models"
	"github.com/noah-isme/planboard-api/pkg/config"
	"github.com/noah-isme/planboard-api/pkg/jobs"
)

const autoSyncJobType = "board_sync"

var errSyncInFlight = errors.New("sync already in flight")

type collectionSyncer interface {
	SyncCollection(ctx context.Context, calendarID string, collection models.Collection) (*models.SyncResult, error)
}

type syncJob struct {
	CalendarID string
	Collection models.Collection
}

// AutoSyncService flushes pending changes in the background. Changes to the
// same collection of a calendar collapse into one queued pass.
type AutoSyncService struct {
	queue    *jobs.Queue
	syncer   collectionSyncer
	debounce time.Duration
	logger   *zap.Logger
}

// NewAutoSyncService builds the background syncer on a jobs queue.
func NewAutoSyncService(syncer collectionSyncer, cfg config.AutoSyncConfig, logger *zap.Logger) *AutoSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AutoSyncService{syncer: syncer, debounce: cfg.Debounce, logger: logger}
	svc.queue = jobs.NewQueue("autosync", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnGiveUp: func(job jobs.Job, err error) {
			if p, ok := job.Payload.(syncJob); ok {
				logger.Error("autosync gave up, changes stay pending",
					zap.String("calendar_id", p.CalendarID),
					zap.String("collection", string(p.Collection)),
					zap.Int("attempts", job.Attempt),
					zap.Error(err),
				)
			}
		},
	})
	return svc
}

// Start launches the workers.
func (s *AutoSyncService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop waits for the workers to exit.
func (s *AutoSyncService) Stop() {
	s.queue.Stop()
}

// Schedule queues a pass for each collection. It satisfies ChangeListener.
func (s *AutoSyncService) Schedule(calendarID string, collections []models.Collection) {
	for _, collection := range collections {
		job := jobs.Job{
			ID:      fmt.Sprintf("%s:%s", calendarID, collection),
			Type:    autoSyncJobType,
			Payload: syncJob{CalendarID: calendarID, Collection: collection},
		}
		if _, err := s.queue.EnqueueUnique(job); err != nil {
			s.logger.Warn("autosync enqueue failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}

func (s *AutoSyncService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(syncJob)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	if job.Attempt == 0 && s.debounce > 0 {
		if wait := s.debounce - time.Since(job.Enqueued); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	result, err := s.syncer.SyncCollection(ctx, payload.CalendarID, payload.Collection)
	if err != nil {
		return err
	}
	if result.Coalesced && result.Pending > 0 {
		return errSyncInFlight
	}
	return nil
}
