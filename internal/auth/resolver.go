package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/marketplace-api/internal/repository"
)

const (
	identityCachePrefix     = "identity:uid:"
	defaultIdentityCacheTTL = 5 * time.Minute
)

// IdentityCache stores resolved account ids. persistence.Redis satisfies it.
type IdentityCache interface {
	GetInt64(ctx context.Context, key string) (int64, bool, error)
	SetInt64(ctx context.Context, key string, val int64, ttl time.Duration) error
}

// RepositoryResolver resolves token subjects to account ids via the user store,
// caching positive lookups in Redis.
type RepositoryResolver struct {
	users  repository.UserRepository
	cache  IdentityCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewRepositoryResolver builds a resolver. A nil cache disables caching.
func NewRepositoryResolver(users repository.UserRepository, cache IdentityCache, ttl time.Duration, logger *zap.Logger) *RepositoryResolver {
	if ttl <= 0 {
		ttl = defaultIdentityCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RepositoryResolver{users: users, cache: cache, ttl: ttl, logger: logger}
}

// ResolveUserID implements IdentityResolver. Unknown, suspended or role-mismatched
// accounts resolve to ok == false.
func (r *RepositoryResolver) ResolveUserID(ctx context.Context, claims *Claims) (int64, bool, error) {
	if claims == nil || strings.TrimSpace(claims.Subject) == "" {
		return 0, false, nil
	}

	key := identityCacheKey(claims)
	if id, ok := r.cached(ctx, key); ok {
		return id, true, nil
	}

	user, err := r.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("resolve user id: %w", err)
	}
	if user.Role != claims.Role || !user.Active() {
		return 0, false, nil
	}

	r.store(ctx, key, user.ID)
	return user.ID, true, nil
}

func (r *RepositoryResolver) cached(ctx context.Context, key string) (int64, bool) {
	if r.cache == nil {
		return 0, false
	}
	id, found, err := r.cache.GetInt64(ctx, key)
	if err != nil {
		r.logger.Warn("identity cache read failed", zap.String("key", key), zap.Error(err))
		return 0, false
	}
	return id, found
}

func (r *RepositoryResolver) store(ctx context.Context, key string, id int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetInt64(ctx, key, id, r.ttl); err != nil {
		r.logger.Warn("identity cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func identityCacheKey(claims *Claims) string {
	return identityCachePrefix + string(claims.Role) + ":" + strings.ToLower(claims.Subject)
}
