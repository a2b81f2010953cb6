package service

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

type cacheRepoStub struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{values: make(map[string][]byte)}
}

func (c *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = raw
	return nil
}

func (c *cacheRepoStub) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}

func (c *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.values {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.values, key)
		}
	}
	return nil
}

func (c *cacheRepoStub) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok
}

func TestCachedEntityStoreReadsThrough(t *testing.T) {
	store := newEntityStoreStub()
	store.seed(t, testCalendar, models.EntityTypePeople, "p1", models.Person{Name: "Ana"})
	cacheRepo := newCacheRepoStub()
	metrics := NewMetricsService()
	cached := NewCachedEntityStore(store, NewCacheService(cacheRepo, metrics, time.Minute, nil, true), nil)
	ctx := context.Background()

	first, err := cached.Query(ctx, testCalendar, models.EntityTypePeople)
	require.NoError(t, err)
	require.Len(t, first, 1)
	second, err := cached.Query(ctx, testCalendar, models.EntityTypePeople)
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, 1, store.queries)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
}

func TestCachedEntityStoreEvictsOnWrite(t *testing.T) {
	store := newEntityStoreStub()
	cacheRepo := newCacheRepoStub()
	cached := NewCachedEntityStore(store, NewCacheService(cacheRepo, nil, time.Minute, nil, true), nil)
	ctx := context.Background()

	_, err := cached.Query(ctx, testCalendar, models.EntityTypePeople)
	require.NoError(t, err)
	_, err = cached.Query(ctx, testCalendar, models.EntityTypeDay)
	require.NoError(t, err)
	peopleKey := entityCacheKey(testCalendar, models.EntityTypePeople)
	dayKey := entityCacheKey(testCalendar, models.EntityTypeDay)
	require.True(t, cacheRepo.has(peopleKey))

	_, err = cached.Upsert(ctx, testCalendar, models.Entity{ID: "p1", Type: models.EntityTypePeople, Payload: []byte(`{"name":"Ana"}`)})
	require.NoError(t, err)
	assert.False(t, cacheRepo.has(peopleKey))
	assert.True(t, cacheRepo.has(dayKey))

	people, err := cached.Query(ctx, testCalendar, models.EntityTypePeople)
	require.NoError(t, err)
	assert.Len(t, people, 1)

	require.NoError(t, cached.Delete(ctx, testCalendar, "p1"))
	assert.False(t, cacheRepo.has(peopleKey))
	assert.False(t, cacheRepo.has(dayKey))
}

func TestCachedEntityStorePassesThroughWhenDisabled(t *testing.T) {
	store := newEntityStoreStub()
	cacheRepo := newCacheRepoStub()
	cached := NewCachedEntityStore(store, NewCacheService(cacheRepo, nil, time.Minute, nil, false), nil)

	for i := 0; i < 2; i++ {
		_, err := cached.Query(context.Background(), testCalendar, models.EntityTypeEvent)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, store.queries)
	assert.Empty(t, cacheRepo.values)
}
