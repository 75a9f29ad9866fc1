package adapters

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/redis/go-redis/v9"

	"github.com/kndndrj/statpipe/core"
	"github.com/kndndrj/statpipe/core/builders"
)

const cacheKeyPrefix = "statpipe:stat"

// Cache stores stat responses in redis. It is shared by all services and
// safe for concurrent use.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger log.Logger
}

type CacheOption func(*Cache)

func CacheWithLogger(logger log.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// NewCache connects to the redis server at url (redis://host:port/db).
func NewCache(url string, ttl time.Duration, opts ...CacheOption) (*Cache, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, core.NewConnectorConfigurationError("redis", err.Error())
	}

	return NewCacheWithClient(redis.NewClient(redisOpts), ttl, opts...), nil
}

func NewCacheWithClient(client redis.UniversalClient, ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{
		client: client,
		ttl:    ttl,
		logger: log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Wrap returns a source which serves repeated stat calls of service from the
// cache.
func (c *Cache) Wrap(service string, src core.Source) core.Source {
	return &cachedSource{
		Source:  src,
		cache:   c,
		service: service,
	}
}

// cacheEntry is the stored form of a stat response. Row records are stored
// as objects, the header keeps their column order.
type cacheEntry struct {
	Header     core.Header `json:"header"`
	Records    []any       `json:"records"`
	TotalCount *int        `json:"total_count,omitempty"`
}

func cacheKey(service string, req *core.StatRequest) (string, error) {
	b, err := json.Marshal(map[string]any{
		"domain_id": req.DomainID,
		"resource":  req.Resource,
		"query":     req.Query,
	})
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)
	return fmt.Sprintf("%s:%s:%s", cacheKeyPrefix, service, hex.EncodeToString(sum[:])), nil
}

var (
	_ core.Source          = (*cachedSource)(nil)
	_ core.ResourceChecker = (*cachedSource)(nil)
)

type cachedSource struct {
	core.Source
	cache   *Cache
	service string
}

func (s *cachedSource) SupportsResource(resource string) bool {
	if checker, ok := s.Source.(core.ResourceChecker); ok {
		return checker.SupportsResource(resource)
	}
	return true
}

func (s *cachedSource) Stat(ctx context.Context, req *core.StatRequest) (core.RecordStream, error) {
	logger := log.With(s.cache.logger, "service", s.service, "resource", req.Resource)

	key, err := cacheKey(s.service, req)
	if err != nil {
		level.Warn(logger).Log("msg", "query cannot be cached", "err", err)
		return s.Source.Stat(ctx, req)
	}

	data, err := s.cache.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entry cacheEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			level.Debug(logger).Log("msg", "cache hit", "key", key)
			return entry.stream(), nil
		}
		level.Warn(logger).Log("msg", "corrupt cache entry", "key", key, "err", err)
	case errors.Is(err, redis.Nil):
	default:
		// the cache is an optimization, fall through to the source
		level.Warn(logger).Log("msg", "cache read failed", "key", key, "err", err)
	}

	stream, err := s.Source.Stat(ctx, req)
	if err != nil {
		return nil, err
	}

	entry := &cacheEntry{
		Header:     stream.Header(),
		TotalCount: stream.Meta().TotalCount,
	}
	meta := stream.Meta()
	records, err := builders.Collect(stream)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		entry.Records = append(entry.Records, recordObject(entry.Header, rec))
	}

	data, err = json.Marshal(entry)
	if err != nil {
		level.Warn(logger).Log("msg", "response cannot be cached", "err", err)
	} else if err := s.cache.client.Set(ctx, key, data, s.cache.ttl).Err(); err != nil {
		level.Warn(logger).Log("msg", "cache write failed", "key", key, "err", err)
	}

	next, hasNext := builders.NextSlice(records, nil)
	return builders.NewRecordStreamBuilder().
		WithNextFunc(next, hasNext).
		WithHeader(entry.Header).
		WithMeta(meta).
		Build(), nil
}

// recordObject converts a row record into a map keyed by header.
func recordObject(header core.Header, rec core.Record) any {
	row, ok := rec.(core.Row)
	if !ok {
		return rec
	}

	obj := make(map[string]any, len(header))
	for i, col := range header {
		if i < len(row) {
			obj[col] = row[i]
		} else {
			obj[col] = nil
		}
	}
	return obj
}

func (e *cacheEntry) stream() core.RecordStream {
	next, hasNext := builders.NextSlice(e.Records, nil)
	return builders.NewRecordStreamBuilder().
		WithNextFunc(next, hasNext).
		WithHeader(e.Header).
		WithMeta(&core.Meta{TotalCount: e.TotalCount}).
		Build()
}
