// Package cache memoises report batches in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/cleared-dev/glengine/internal/period"
	"github.com/cleared-dev/glengine/internal/report"
)

// DefaultTTL applies when Options.TTL is zero.
const DefaultTTL = 2 * time.Minute

// Generator produces report batches.
type Generator interface {
	Reports(ctx context.Context, tenant string, m *period.Month) (*report.Batch, error)
}

// Options configures the cache.
type Options struct {
	TTL    time.Duration
	Prefix string
	Logger logrus.FieldLogger
	Clock  func() time.Time
}

// Reports wraps a Generator with a Redis read-through cache. Redis failures
// are logged and the wrapped generator answers instead.
type Reports struct {
	next   Generator
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
	log    logrus.FieldLogger
	now    func() time.Time
}

// New returns a caching Generator.
func New(next Generator, rdb redis.Cmdable, opts Options) *Reports {
	c := &Reports{
		next:   next,
		rdb:    rdb,
		ttl:    opts.TTL,
		prefix: opts.Prefix,
		log:    opts.Logger,
		now:    opts.Clock,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.prefix == "" {
		c.prefix = "glengine"
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Key returns the cache key of a tenant's month.
func (c *Reports) Key(tenant string, m period.Month) string {
	return fmt.Sprintf("%s:reports:%s:%s", c.prefix, tenant, m)
}

// Reports returns the cached batch or generates and stores a new one.
// Batches missing job data are not cached.
func (c *Reports) Reports(ctx context.Context, tenant string, m *period.Month) (*report.Batch, error) {
	month := period.Of(c.now())
	if m != nil {
		month = *m
	}
	key := c.Key(tenant, month)
	log := c.log.WithFields(logrus.Fields{"tenant": tenant, "key": key})

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var b report.Batch
		if err := json.Unmarshal(raw, &b); err == nil {
			log.Debug("report cache hit")
			return &b, nil
		}
		log.WithError(err).Warn("discarding undecodable cached reports")
	case errors.Is(err, redis.Nil):
	default:
		log.WithError(err).Warn("report cache read failed")
	}

	b, err := c.next.Reports(ctx, tenant, &month)
	if err != nil {
		return nil, err
	}
	if b.JobsUnavailable {
		return b, nil
	}

	payload, err := json.Marshal(b)
	if err != nil {
		log.WithError(err).Warn("encoding reports for cache")
		return b, nil
	}
	if err := c.rdb.Set(ctx, key, string(payload), c.ttl).Err(); err != nil {
		log.WithError(err).Warn("report cache write failed")
	}
	return b, nil
}

// Invalidate drops a cached month for a tenant.
func (c *Reports) Invalidate(ctx context.Context, tenant string, m period.Month) error {
	return c.rdb.Del(ctx, c.Key(tenant, m)).Err()
}
