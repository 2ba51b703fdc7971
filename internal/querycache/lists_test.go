package querycache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rongsox/dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bankKey(page int) Key {
	return Key{Kind: domain.KindBank, Page: page, Size: 5}
}

func countingFetch(calls *int32, rows int) FetchFunc[domain.Bank] {
	return func(ctx context.Context) (domain.Page[domain.Bank], error) {
		atomic.AddInt32(calls, 1)
		page := domain.Page[domain.Bank]{Paging: domain.Paging{TotalElements: rows, TotalPages: 1}}
		for i := 0; i < rows; i++ {
			page.Data = append(page.Data, domain.Bank{ID: "b", BankName: "BCA", BankCode: "014"})
		}
		return page, nil
	}
}

func TestLoad_CachesByKey(t *testing.T) {
	ctx := context.Background()
	lists := NewLists(NewMemoryStore(0), time.Minute, testLogger())
	var calls int32

	first, err := Load(ctx, lists, bankKey(1), countingFetch(&calls, 3))
	require.NoError(t, err)
	second, err := Load(ctx, lists, bankKey(1), countingFetch(&calls, 3))
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, first, second)

	_, err = Load(ctx, lists, bankKey(2), countingFetch(&calls, 3))
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "a different page is a different key")
}

func TestInvalidate_DropsAllPagesOfKind(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	lists := NewLists(store, time.Minute, testLogger())
	var bankCalls, stuffCalls int32

	for page := 1; page <= 3; page++ {
		_, err := Load(ctx, lists, bankKey(page), countingFetch(&bankCalls, 1))
		require.NoError(t, err)
	}
	stuffKey := Key{Kind: domain.KindStuff, Page: 1, Size: 5}
	_, err := Load(ctx, lists, stuffKey, func(ctx context.Context) (domain.Page[domain.Stuff], error) {
		atomic.AddInt32(&stuffCalls, 1)
		return domain.Page[domain.Stuff]{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, store.Len())

	require.NoError(t, lists.Invalidate(ctx, domain.KindBank))
	assert.Equal(t, 1, store.Len(), "only the stuff page survives")

	for page := 1; page <= 3; page++ {
		_, err := Load(ctx, lists, bankKey(page), countingFetch(&bankCalls, 1))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(6), atomic.LoadInt32(&bankCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&stuffCalls))
}

func TestLoad_SingleInFlightPerKey(t *testing.T) {
	ctx := context.Background()
	lists := NewLists(NewMemoryStore(0), time.Minute, testLogger())
	var calls int32
	release := make(chan struct{})

	fetch := func(ctx context.Context) (domain.Page[domain.Bank], error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return domain.Page[domain.Bank]{Data: []domain.Bank{{ID: "1"}}}, nil
	}

	var wg sync.WaitGroup
	results := make([]domain.Page[domain.Bank], 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			page, err := Load(ctx, lists, bankKey(1), fetch)
			assert.NoError(t, err)
			results[i] = page
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, page := range results {
		assert.Len(t, page.Data, 1)
	}
}

func TestLoad_LateResponseAfterInvalidateIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	lists := NewLists(store, time.Minute, testLogger())
	started := make(chan struct{})
	release := make(chan struct{})

	done := make(chan domain.Page[domain.Bank])
	go func() {
		page, _ := Load(ctx, lists, bankKey(1), func(ctx context.Context) (domain.Page[domain.Bank], error) {
			close(started)
			<-release
			return domain.Page[domain.Bank]{Data: []domain.Bank{{ID: "stale"}}}, nil
		})
		done <- page
	}()

	<-started
	require.NoError(t, lists.Invalidate(ctx, domain.KindBank))
	close(release)

	stale := <-done
	assert.Equal(t, "stale", stale.Data[0].ID, "the caller that asked still gets its answer")
	assert.Equal(t, 0, store.Len())

	fresh, err := Load(ctx, lists, bankKey(1), func(ctx context.Context) (domain.Page[domain.Bank], error) {
		return domain.Page[domain.Bank]{Data: []domain.Bank{{ID: "fresh"}}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", fresh.Data[0].ID)
}

func TestLoad_FetchErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	lists := NewLists(NewMemoryStore(0), time.Minute, testLogger())
	boom := errors.New("backend down")

	_, err := Load(ctx, lists, bankKey(1), func(ctx context.Context) (domain.Page[domain.Bank], error) {
		return domain.Page[domain.Bank]{}, boom
	})
	assert.ErrorIs(t, err, boom)

	var calls int32
	_, err = Load(ctx, lists, bankKey(1), countingFetch(&calls, 1))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

type brokenStore struct{ MemoryStore }

func (*brokenStore) Generation(context.Context, string) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestLoad_StoreFailureFallsBackToFetch(t *testing.T) {
	lists := NewLists(&brokenStore{}, time.Minute, testLogger())
	var calls int32

	for i := 0; i < 2; i++ {
		_, err := Load(context.Background(), lists, bankKey(1), countingFetch(&calls, 1))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(0)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Second))
	_, ok, _ := store.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = store.Get(ctx, "k")
	assert.False(t, ok)

	store.evictExpired()
	assert.Equal(t, 0, store.Len())
}

func TestKeyString(t *testing.T) {
	a := Key{Kind: domain.KindTransaction, Search: "a|b", Page: 1, Size: 5}
	b := Key{Kind: domain.KindTransaction, Search: "a", Status: "b", Page: 1, Size: 5}
	assert.NotEqual(t, a.String(), b.String())

	withType := Key{Kind: domain.KindTransaction, TransactionType: "Deposit", Page: 1, Size: 5}
	assert.NotEqual(t, withType.String(), Key{Kind: domain.KindTransaction, Page: 1, Size: 5}.String())
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	store, err := NewRedisStore(ctx, url, "rongsox-test:"+time.Now().Format("150405.000000")+":")
	require.NoError(t, err)
	defer store.Close()

	gen, err := store.Generation(ctx, "banks")
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	val, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)

	gen, err = store.Bump(ctx, "banks")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
}
