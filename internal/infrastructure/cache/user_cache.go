package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/communify/communify-backend/internal/domain/entity"
	"github.com/communify/communify-backend/internal/domain/repository"
	"github.com/communify/communify-backend/pkg/helpers"
)

// UserCache decorates a UserRepository with a Redis read-through cache
// keyed by account id. Every mutation writes the fresh record through
// before returning, so authorization checks never act on a stale
// is_active flag. A nil redis client degrades to a plain passthrough.
type UserCache struct {
	next   repository.UserRepository
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewUserCache(next repository.UserRepository, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *UserCache {
	return &UserCache{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func userKey(id string) string { return "user:record:" + id }

func (c *UserCache) Create(ctx context.Context, u *entity.User) error {
	if err := c.next.Create(ctx, u); err != nil {
		return err
	}
	c.store(ctx, u)
	return nil
}

func (c *UserCache) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if c.rdb != nil {
		var u entity.User
		hit, err := helpers.RedisGetJSON(ctx, c.rdb, userKey(id), &u)
		if err != nil && c.logger != nil {
			c.logger.WithError(err).WithField("user_id", id).Warn("user cache read failed")
		}
		if hit && err == nil {
			return &u, nil
		}
	}
	u, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, u)
	return u, nil
}

// GetByEmail always hits the backing store; email is a login-time lookup
// key and caching it would add a second staleness axis for no gain. The
// fetched record still primes the id-keyed cache.
func (c *UserCache) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	u, err := c.next.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	c.store(ctx, u)
	return u, nil
}

func (c *UserCache) Update(ctx context.Context, u *entity.User) error {
	if err := c.next.Update(ctx, u); err != nil {
		return err
	}
	c.store(ctx, u)
	return nil
}

func (c *UserCache) List(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	return c.next.List(ctx, limit, offset)
}

func (c *UserCache) store(ctx context.Context, u *entity.User) {
	if c.rdb == nil || u == nil {
		return
	}
	if err := helpers.RedisSetJSON(ctx, c.rdb, userKey(u.ID), u, c.ttl); err != nil && c.logger != nil {
		c.logger.WithError(err).WithField("user_id", u.ID).Warn("user cache write failed")
	}
}

var _ repository.UserRepository = (*UserCache)(nil)
