package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/planboard-api/internal/dto"
	"github.com/noah-isme/planboard-api/internal/models"
	appErrors "github.com/noah-isme/planboard-api/pkg/errors"
)

func TestSyncCollectionPushesAndResetsPending(t *testing.T) {
	store := newEntityStoreStub()
	_, svc, syncSvc := newTestServices(store)
	addNote(t, svc, may3, "a")
	addNote(t, svc, may3, "b")
	require.Equal(t, 2, statusOf(t, svc, models.CollectionCalendar).PendingChanges)

	res, err := syncSvc.SyncCollection(context.Background(), testCalendar, models.CollectionCalendar)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Upserted)
	assert.True(t, res.Replaced)
	assert.Equal(t, 0, res.Pending)
	assert.Equal(t, 1, store.count(models.EntityTypeDay))

	st := statusOf(t, svc, models.CollectionCalendar)
	assert.Equal(t, models.SyncStateClean, st.State)
	assert.NotNil(t, st.LastSyncedAt)

	board, err := svc.Board(context.Background(), testCalendar)
	require.NoError(t, err)
	assert.Len(t, board.Board.Days[may3].Items, 2)
}

func TestSyncCollectionDeletesSoftDeletedEntities(t *testing.T) {
	store := newEntityStoreStub()
	_, svc, syncSvc := newTestServices(store)
	ctx := context.Background()
	note := addNote(t, svc, may3, "gone soon")
	_, err := syncSvc.SyncCollection(ctx, testCalendar, models.CollectionCalendar)
	require.NoError(t, err)

	_, err = svc.DeleteItem(ctx, testCalendar, note.ID)
	require.NoError(t, err)
	res, err := syncSvc.SyncCollection(ctx, testCalendar, models.CollectionCalendar)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 0, store.count(models.EntityTypeDay))

	board, err := svc.Board(ctx, testCalendar)
	require.NoError(t, err)
	assert.Empty(t, board.Board.Days)
}

func TestSyncCollectionFailureKeepsPendingAndLocalState(t *testing.T) {
	store := newEntityStoreStub()
	store.upsertErr = errors.New("connection reset")
	_, svc, syncSvc := newTestServices(store)
	ctx := context.Background()
	addNote(t, svc, may3, "a")
	addNote(t, svc, may4, "b")

	res, err := syncSvc.SyncCollection(ctx, testCalendar, models.CollectionCalendar)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSyncFailure))
	assert.Equal(t, "you have changes that failed to save", appErrors.FromError(err).Message)
	assert.Equal(t, 2, res.Pending)

	st := statusOf(t, svc, models.CollectionCalendar)
	assert.Equal(t, models.SyncStateDirty, st.State)
	assert.Equal(t, 2, st.PendingChanges)
	assert.NotEmpty(t, st.LastError)

	board, err := svc.Board(ctx, testCalendar)
	require.NoError(t, err)
	assert.Len(t, board.Board.Days, 2)

	store.setUpsertErr(nil)
	res, err = syncSvc.SyncCollection(ctx, testCalendar, models.CollectionCalendar)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Pending)
	assert.Empty(t, statusOf(t, svc, models.CollectionCalendar).LastError)
}

func TestSyncCollectionCoalescesConcurrentRequests(t *testing.T) {
	store := newEntityStoreStub()
	_, svc, syncSvc := newTestServices(store)
	ctx := context.Background()
	addNote(t, svc, may3, "a")

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.beforeUpsert = func() {
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	done := make(chan error, 1)
	go func() {
		_, err := syncSvc.SyncCollection(ctx, testCalendar, models.CollectionCalendar)
		done <- err
	}()
	<-entered

	res, err := syncSvc.SyncCollection(ctx, testCalendar, models.CollectionCalendar)
	require.NoError(t, err)
	assert.True(t, res.Coalesced)
	assert.Equal(t, models.SyncStateSyncing, statusOf(t, svc, models.CollectionCalendar).State)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, store.upserts)
	assert.Equal(t, models.SyncStateClean, statusOf(t, svc, models.CollectionCalendar).State)
}

func TestSyncCollectionKeepsEditsMadeDuringThePass(t *testing.T) {
	store := newEntityStoreStub()
	_, svc, syncSvc := newTestServices(store)
	ctx := context.Background()
	addNote(t, svc, may3, "before")

	var once sync.Once
	store.beforeUpsert = func() {
		once.Do(func() {
			_, err := svc.AddItem(ctx, testCalendar, dto.CreateItemRequest{ContainerID: may3, ContentType: models.ContentTypeNote, Content: "during"})
			assert.NoError(t, err)
		})
	}

	res, err := syncSvc.SyncCollection(ctx, testCalendar, models.CollectionCalendar)
	require.NoError(t, err)
	assert.False(t, res.Replaced)
	assert.Equal(t, 1, res.Pending)

	board, err := svc.Board(ctx, testCalendar)
	require.NoError(t, err)
	assert.Len(t, board.Board.Days[may3].Items, 2)

	res, err = syncSvc.SyncCollection(ctx, testCalendar, models.CollectionCalendar)
	require.NoError(t, err)
	assert.True(t, res.Replaced)
	assert.Equal(t, 0, res.Pending)
}

func TestSyncAllOnlyTouchesDirtyCollections(t *testing.T) {
	store := newEntityStoreStub()
	_, svc, syncSvc := newTestServices(store)
	ctx := context.Background()
	addNote(t, svc, may3, "a")
	_, err := svc.AddPerson(ctx, testCalendar, dto.CreatePersonRequest{Name: "Ana"})
	require.NoError(t, err)

	results, err := syncSvc.SyncAll(ctx, testCalendar)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, models.CollectionCalendar, results[0].Collection)
	assert.Equal(t, models.CollectionPeople, results[1].Collection)
	assert.Equal(t, 1, store.count(models.EntityTypePeople))

	results, err = syncSvc.SyncAll(ctx, testCalendar)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSyncCollectionRejectsUnknownCollection(t *testing.T) {
	_, _, syncSvc := newTestServices(newEntityStoreStub())
	_, err := syncSvc.SyncCollection(context.Background(), testCalendar, "photos")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFlushSyncsEveryDirtyBoard(t *testing.T) {
	store := newEntityStoreStub()
	sessions, svc, syncSvc := newTestServices(store)
	ctx := context.Background()
	addNote(t, svc, may3, "a")
	_, err := svc.AddItem(ctx, "cal-2", dto.CreateItemRequest{ContainerID: may4, ContentType: models.ContentTypeNote, Content: "b"})
	require.NoError(t, err)
	_, err = svc.Board(ctx, "cal-3")
	require.NoError(t, err)
	assert.Equal(t, []string{"cal-1", "cal-2"}, sessions.Dirty())

	flushed, err := syncSvc.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, flushed)
	assert.Empty(t, sessions.Dirty())
}

func TestFlushReportsBoardsThatFailed(t *testing.T) {
	store := newEntityStoreStub()
	store.upsertErr = errors.New("connection reset")
	sessions, svc, syncSvc := newTestServices(store)
	addNote(t, svc, may3, "a")

	_, err := syncSvc.Flush(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSyncFailure))
	assert.Equal(t, []string{testCalendar}, sessions.Dirty())
}

func TestFlushWaitsForPassInFlightAndRetries(t *testing.T) {
	store := newEntityStoreStub()
	store.upsertErr = errors.New("context canceled")
	_, svc, syncSvc := newTestServices(store)
	ctx := context.Background()
	addNote(t, svc, may3, "unsaved")

	entered := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	store.beforeUpsert = func() {
		calls++
		switch calls {
		case 1:
			close(entered)
			<-release
		case 2:
			store.mu.Lock()
			store.upsertErr = nil
			store.mu.Unlock()
		}
	}

	inFlight := make(chan error, 1)
	go func() {
		_, err := syncSvc.SyncCollection(ctx, testCalendar, models.CollectionCalendar)
		inFlight <- err
	}()
	<-entered

	type flushResult struct {
		n   int
		err error
	}
	flushed := make(chan flushResult, 1)
	go func() {
		n, err := syncSvc.Flush(ctx)
		flushed <- flushResult{n, err}
	}()
	select {
	case res := <-flushed:
		t.Fatalf("flush returned while a pass was in flight: %+v", res)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	assert.True(t, errors.Is(<-inFlight, appErrors.ErrSyncFailure))
	res := <-flushed
	require.NoError(t, res.err)
	assert.Equal(t, 1, res.n)
	assert.Equal(t, 0, statusOf(t, svc, models.CollectionCalendar).PendingChanges)
	assert.Equal(t, 1, store.count(models.EntityTypeDay))
}

func TestFlushGivesUpWhenThePassInFlightOutlivesTheDeadline(t *testing.T) {
	store := newEntityStoreStub()
	sessions, svc, syncSvc := newTestServices(store)
	addNote(t, svc, may3, "unsaved")

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.beforeUpsert = func() {
		once.Do(func() {
			close(entered)
			<-release
		})
	}
	inFlight := make(chan error, 1)
	go func() {
		_, err := syncSvc.SyncCollection(context.Background(), testCalendar, models.CollectionCalendar)
		inFlight <- err
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := syncSvc.Flush(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSyncFailure))
	assert.Equal(t, []string{testCalendar}, sessions.Dirty())

	close(release)
	require.NoError(t, <-inFlight)
}
