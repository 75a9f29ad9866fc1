package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/kndndrj/statpipe/core"
	"github.com/kndndrj/statpipe/core/builders"
	"github.com/kndndrj/statpipe/core/mock"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cache := NewCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ttl)
	t.Cleanup(func() {
		_ = cache.Close()
	})
	return cache, mr
}

func TestCache_Stat(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	cache, mr := newTestCache(t, time.Minute)

	total := 2
	src := mock.NewSource(
		mock.SourceWithRecords("Server",
			map[string]any{"project_id": "p-1", "server_count": 4},
			map[string]any{"project_id": "p-2", "server_count": 9},
		),
		mock.SourceWithRecordStreamOpts("Server", mock.RecordStreamWithMeta(&core.Meta{TotalCount: &total})),
	)
	cached := cache.Wrap("inventory", src)

	req := &core.StatRequest{DomainID: "domain-1", Resource: "Server", Query: map[string]any{"page": 1}}

	stream, err := cached.Stat(ctx, req)
	r.NoError(err)
	first, err := builders.Collect(stream)
	r.NoError(err)
	r.Len(first, 2)

	key, err := cacheKey("inventory", req)
	r.NoError(err)
	r.True(mr.Exists(key))
	r.Equal(time.Minute, mr.TTL(key))

	stream, err = cached.Stat(ctx, req)
	r.NoError(err)
	r.Equal(2, *stream.Meta().TotalCount)
	second, err := builders.Collect(stream)
	r.NoError(err)

	// only the first call reached the source
	r.Len(src.Calls(), 1)
	r.Equal([]core.Record{
		map[string]any{"project_id": "p-1", "server_count": 4.0},
		map[string]any{"project_id": "p-2", "server_count": 9.0},
	}, second)

	// another tenant is a different key
	_, err = cached.Stat(ctx, &core.StatRequest{DomainID: "domain-2", Resource: "Server", Query: map[string]any{"page": 1}})
	r.NoError(err)
	r.Len(src.Calls(), 2)

	mr.FastForward(2 * time.Minute)
	_, err = cached.Stat(ctx, req)
	r.NoError(err)
	r.Len(src.Calls(), 3)
}

func TestCache_RowRecords(t *testing.T) {
	r := require.New(t)
	ctx := context.Background()

	cache, _ := newTestCache(t, time.Minute)

	src := mock.NewSource(
		mock.SourceWithRecords("Cost", core.Row{"p-1", 10.5}, core.Row{"p-2", nil}),
		mock.SourceWithRecordStreamOpts("Cost", mock.RecordStreamWithHeader(core.Header{"project_id", "cost"})),
	)
	resolver := core.NewResolver(mock.Lookup{"cost": cache.Wrap("cost", src)})

	for i := 0; i < 2; i++ {
		table, err := resolver.Resolve(ctx, "", "cost.Cost", map[string]any{"sql": "SELECT 1"}, nil)
		r.NoError(err)
		r.Equal(core.Header{"project_id", "cost"}, table.Header())
		r.Equal([]core.Row{{"p-1", 10.5}, {"p-2", nil}}, table.Rows())
	}
	r.Len(src.Calls(), 1)
}

func TestCache_SourceError(t *testing.T) {
	r := require.New(t)

	cache, mr := newTestCache(t, time.Minute)

	src := mock.NewSource(mock.SourceWithStatSideEffect("Server", func(context.Context, *core.StatRequest) error {
		return context.DeadlineExceeded
	}))
	cached := cache.Wrap("inventory", src)

	_, err := cached.Stat(context.Background(), &core.StatRequest{Resource: "Server", Query: map[string]any{}})
	r.ErrorIs(err, context.DeadlineExceeded)
	r.Empty(mr.Keys())
}

func TestCache_RedisDown(t *testing.T) {
	r := require.New(t)

	cache, mr := newTestCache(t, time.Minute)
	mr.Close()

	src := mock.NewSource(mock.SourceWithRecords("Server", map[string]any{"id": 1}))
	stream, err := cache.Wrap("inventory", src).Stat(context.Background(), &core.StatRequest{Resource: "Server", Query: map[string]any{}})
	r.NoError(err)

	records, err := builders.Collect(stream)
	r.NoError(err)
	r.Len(records, 1)
}

func TestCache_SupportsResource(t *testing.T) {
	r := require.New(t)

	cache, _ := newTestCache(t, time.Minute)
	src := mock.NewSource(mock.SourceWithRecords("Server"))
	cached := cache.Wrap("inventory", src).(core.ResourceChecker)

	r.True(cached.SupportsResource("Server"))
	r.False(cached.SupportsResource("Database"))
}
