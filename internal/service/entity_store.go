package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/planboard-api/internal/models"
	"github.com/noah-isme/planboard-api/pkg/cache"
)

// EntityStore is the persistence collaborator contract used by the board and
// sync services.
type EntityStore interface {
	Query(ctx context.Context, calendarID string, entityType models.EntityType) ([]models.Entity, error)
	Upsert(ctx context.Context, calendarID string, entity models.Entity) (*models.Entity, error)
	Delete(ctx context.Context, calendarID, entityID string) error
}

// CachedEntityStore puts a read-through cache in front of an EntityStore.
// Writes evict the affected calendar's cached queries.
type CachedEntityStore struct {
	next   EntityStore
	cache  *CacheService
	logger *zap.Logger
}

// NewCachedEntityStore wraps next. A disabled cache makes it a pass-through.
func NewCachedEntityStore(next EntityStore, cacheSvc *CacheService, logger *zap.Logger) *CachedEntityStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEntityStore{next: next, cache: cacheSvc, logger: logger}
}

func entityCacheKey(calendarID string, entityType models.EntityType) string {
	return cache.Key("entities", calendarID, string(entityType))
}

// Query serves from cache when possible.
func (s *CachedEntityStore) Query(ctx context.Context, calendarID string, entityType models.EntityType) ([]models.Entity, error) {
	key := entityCacheKey(calendarID, entityType)
	var cached []models.Entity
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}
	entities, err := s.next.Query(ctx, calendarID, entityType)
	if err != nil {
		return nil, err
	}
	if entities == nil {
		entities = []models.Entity{}
	}
	// a failed write only costs the next lookup
	_ = s.cache.Set(ctx, key, entities, 0)
	return entities, nil
}

// Upsert writes through and evicts the cached query of the entity type.
func (s *CachedEntityStore) Upsert(ctx context.Context, calendarID string, entity models.Entity) (*models.Entity, error) {
	stored, err := s.next.Upsert(ctx, calendarID, entity)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Evict(ctx, entityCacheKey(calendarID, entity.Type)); err != nil {
		s.logger.Warn("stale entity cache", zap.String("calendar_id", calendarID), zap.Error(err))
	}
	return stored, nil
}

// Delete writes through and evicts every cached query of the calendar.
func (s *CachedEntityStore) Delete(ctx context.Context, calendarID, entityID string) error {
	if err := s.next.Delete(ctx, calendarID, entityID); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, cache.Key("entities", calendarID, "*")); err != nil {
		s.logger.Warn("stale entity cache", zap.String("calendar_id", calendarID), zap.Error(err))
	}
	return nil
}

// loadCollections reads the stored entities of each collection of a calendar.
func loadCollections(ctx context.Context, store EntityStore, calendarID string, collections []models.Collection) (map[models.Collection][]models.Entity, error) {
	out := make(map[models.Collection][]models.Entity, len(collections))
	for _, collection := range collections {
		var entities []models.Entity
		for _, entityType := range collection.EntityTypes() {
			batch, err := store.Query(ctx, calendarID, entityType)
			if err != nil {
				return nil, fmt.Errorf("query %s: %w", entityType, err)
			}
			entities = append(entities, batch...)
		}
		out[collection] = entities
	}
	return out, nil
}
