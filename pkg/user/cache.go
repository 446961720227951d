package user

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"

	"blog/pkg/logger"
)

const summaryNS = "blog:user:summary:"

type SummarySource interface {
	GetByIds(context.Context, []string) ([]*User, error)
}

// SummaryCache resolves author summaries through Redis, falling back to
// the user store on a miss. A nil pool disables caching. Redis failures
// are logged and never fail the lookup.
type SummaryCache struct {
	src  SummarySource
	pool *redis.Pool
	ttl  time.Duration
}

func NewSummaryCache(src SummarySource, pool *redis.Pool, ttl time.Duration) *SummaryCache {
	return &SummaryCache{
		src:  src,
		pool: pool,
		ttl:  ttl,
	}
}

// NewRedisPool returns a pool dialing addr, e.g. "localhost:6379" or a
// redis:// URL.
func NewRedisPool(addr string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     8,
		IdleTimeout: 4 * time.Minute,
		Dial: func() (redis.Conn, error) {
			if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
				return redis.DialURL(addr)
			}
			return redis.Dial("tcp", addr)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// Summaries returns the summaries of the given users keyed by id.
func (c *SummaryCache) Summaries(ctx context.Context, ids []string) (map[string]*Summary, error) {
	ids = uniq(ids)
	res := make(map[string]*Summary, len(ids))
	if len(ids) == 0 {
		return res, nil
	}

	missing := ids
	if c.pool != nil {
		cached, err := c.fromRedis(ctx, ids)
		if err != nil {
			logger.Log(ctx).Warnf("user/cache: redis lookup failed: %v", err)
		} else {
			missing = missing[:0:0]
			for _, id := range ids {
				if s, ok := cached[id]; ok {
					res[id] = s
				} else {
					missing = append(missing, id)
				}
			}
		}
	}
	if len(missing) == 0 {
		return res, nil
	}

	users, err := c.src.GetByIds(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("user/cache: failed loading summaries: %w", err)
	}
	fresh := make([]*Summary, 0, len(users))
	for _, u := range users {
		s := u.Summary()
		res[u.Id] = s
		fresh = append(fresh, s)
	}

	if c.pool != nil && len(fresh) > 0 {
		if err := c.store(ctx, fresh); err != nil {
			logger.Log(ctx).Warnf("user/cache: redis store failed: %v", err)
		}
	}
	return res, nil
}

// Invalidate drops the cached summary of a user after a profile change.
func (c *SummaryCache) Invalidate(ctx context.Context, id string) {
	if c.pool == nil {
		return
	}
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		logger.Log(ctx).Warnf("user/cache: can't get redis connection: %v", err)
		return
	}
	defer conn.Close()
	if _, err := conn.Do("DEL", summaryNS+id); err != nil {
		logger.Log(ctx).Warnf("user/cache: DEL %s failed: %v", id, err)
	}
}

func (c *SummaryCache) fromRedis(ctx context.Context, ids []string) (map[string]*Summary, error) {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	keys := make([]interface{}, len(ids))
	for i, id := range ids {
		keys[i] = summaryNS + id
	}
	values, err := redis.ByteSlices(conn.Do("MGET", keys...))
	if err != nil {
		return nil, err
	}

	found := make(map[string]*Summary, len(ids))
	for i, v := range values {
		if v == nil {
			continue
		}
		s := new(Summary)
		if err := json.Unmarshal(v, s); err != nil {
			logger.Log(ctx).Warnf("user/cache: broken entry for %s: %v", ids[i], err)
			continue
		}
		found[ids[i]] = s
	}
	return found, nil
}

func (c *SummaryCache) store(ctx context.Context, summaries []*Summary) error {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	ttl := int64(c.ttl.Seconds())
	if ttl < 1 {
		ttl = 1
	}
	for _, s := range summaries {
		data, err := json.Marshal(s)
		if err != nil {
			return err
		}
		if err := conn.Send("SETEX", summaryNS+s.Id, ttl, data); err != nil {
			return err
		}
	}
	if err := conn.Flush(); err != nil {
		return err
	}
	for range summaries {
		if _, err := conn.Receive(); err != nil {
			return err
		}
	}
	return nil
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
