package http

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/blink-inc/blink/internal/application/user"
	"github.com/blink-inc/blink/internal/application/user/ceremony"
	"github.com/blink-inc/blink/internal/domain/passkey"
	"github.com/blink-inc/blink/internal/infrastructure/auth"
	"github.com/blink-inc/blink/internal/infrastructure/cache"
	"github.com/blink-inc/blink/internal/infrastructure/config"
	"github.com/blink-inc/blink/internal/infrastructure/ratelimit"
	"github.com/blink-inc/blink/internal/infrastructure/repository"
	"github.com/blink-inc/blink/internal/interfaces/http/handlers"
	"github.com/blink-inc/blink/internal/interfaces/http/middleware"
	"github.com/blink-inc/blink/internal/shared/logger"
)

// Container holds the infrastructure, services, handlers and middlewares of
// the HTTP server and wires them together once at startup.
type Container struct {
	cfg *config.Config
	log logger.Interface
	db  *gorm.DB

	redis         *redis.Client
	metadataRedis *redis.Client

	identities *repository.IdentityRepository
	passkeys   *repository.PasskeyCredentialRepository
	catalog    *cache.AuthenticatorCatalog
	issuer     *auth.SessionIssuer
	gate       *auth.AuthorizationGate

	ceremonies *ceremony.Manager
	users      *user.Service

	passkeyHandler       *handlers.PasskeyHandler
	passwordHandler      *handlers.PasswordHandler
	authorizationHandler *handlers.AuthorizationHandler
	healthHandler        *handlers.HealthHandler

	authMiddleware *middleware.AuthMiddleware
	rateLimiter    *ratelimit.RedisRateLimiter
}

// NewContainer wires every component from cfg. The Redis clients are owned
// by the caller.
func NewContainer(cfg *config.Config, db *gorm.DB, redisClient, metadataRedis *redis.Client, log logger.Interface) (*Container, error) {
	c := &Container{
		cfg:           cfg,
		log:           log,
		db:            db,
		redis:         redisClient,
		metadataRedis: metadataRedis,
	}

	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}
	if err := c.initServices(); err != nil {
		return nil, err
	}
	c.initHandlers()
	return c, nil
}

func (c *Container) initInfrastructure() error {
	var err error

	c.identities = repository.NewIdentityRepository(c.db, c.log)
	c.passkeys = repository.NewPasskeyCredentialRepository(c.db, c.log)

	c.catalog, err = cache.NewAuthenticatorCatalog(c.metadataRedis, c.log)
	if err != nil {
		return err
	}

	c.issuer, err = auth.NewSessionIssuer(c.cfg.Auth.JWT)
	if err != nil {
		return fmt.Errorf("failed to create session issuer: %w", err)
	}
	c.gate = auth.NewAuthorizationGate(c.issuer)

	c.authMiddleware = middleware.NewAuthMiddleware(c.gate, c.log)
	if c.cfg.RateLimit.Enabled {
		window := time.Duration(c.cfg.RateLimit.WindowSeconds) * time.Second
		c.rateLimiter = ratelimit.NewRedisRateLimiter(c.redis, c.cfg.RateLimit.Limit, window)
	}
	return nil
}

func (c *Container) initServices() error {
	verifier, err := auth.NewWebAuthnService(c.cfg.WebAuthn)
	if err != nil {
		return fmt.Errorf("failed to create webauthn service: %w", err)
	}

	challenges, err := c.newChallengeStore()
	if err != nil {
		return err
	}
	hasher := auth.NewBcryptPasswordHasher(c.cfg.Auth.Password.BcryptCost)

	c.ceremonies = ceremony.NewManager(verifier, challenges, c.passkeys, c.identities, c.catalog, c.issuer, c.log)
	c.users = user.NewService(c.identities, c.passkeys, c.catalog, hasher, c.issuer, c.log)
	return nil
}

// newChallengeStore picks the ceremony store. The memory store only suits a
// single process since ceremonies must complete on the node that began them.
func (c *Container) newChallengeStore() (passkey.ChallengeStore, error) {
	ttl := c.cfg.WebAuthn.ChallengeTTL()
	switch c.cfg.WebAuthn.ChallengeStore {
	case "", "redis":
		return cache.NewRedisChallengeStore(c.redis, ttl), nil
	case "memory":
		capacity := c.cfg.WebAuthn.ChallengeStoreCapacity
		c.log.Warnw("using in-process challenge store", "ttl", ttl, "capacity", capacity)
		return cache.NewMemoryChallengeStore(ttl, cache.WithCapacity(capacity)), nil
	default:
		return nil, fmt.Errorf("unsupported challenge store %q", c.cfg.WebAuthn.ChallengeStore)
	}
}

func (c *Container) initHandlers() {
	c.passkeyHandler = handlers.NewPasskeyHandler(
		c.ceremonies,
		c.users,
		c.cfg.Cookie,
		c.cfg.WebAuthn.ChallengeTTL(),
		c.log.Named("passkey"),
	)
	c.passwordHandler = handlers.NewPasswordHandler(c.users, c.log.Named("password"))
	c.authorizationHandler = handlers.NewAuthorizationHandler(c.gate)
	c.healthHandler = handlers.NewHealthHandler(map[string]handlers.HealthCheck{
		"database": c.pingDatabase,
		"redis": func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		},
	})
}

func (c *Container) pingDatabase(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
