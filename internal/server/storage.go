package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventory-api/internal/config"
	"inventory-api/internal/database"
	"inventory-api/internal/repository"
	"inventory-api/internal/repository/mongostore"
	"inventory-api/internal/repository/pgstore"
	"inventory-api/internal/repository/redisstore"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// maxSweepInterval bounds how long expired sessions linger in memory
const maxSweepInterval = time.Minute

// Storage bundles the repositories selected by configuration together with
// the connections backing them.
type Storage struct {
	Products repository.ProductRepository
	Users    repository.UserRepository
	Sessions repository.SessionRepository

	// Redis is set when REDIS_ENABLED is on; it backs sessions and rate limiting
	Redis *redis.Client

	driver   string
	postgres *database.Service
	mongo    *mongo.Client
}

// OpenStorage connects the configured backends. On failure every connection
// opened so far is closed again.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	s := &Storage{driver: cfg.Storage.Driver}

	var err error
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		err = s.openPostgres(ctx, cfg, logger)
	case config.DriverMongo:
		err = s.openMongo(ctx, cfg)
	case config.DriverMemory:
		s.Products = repository.NewMemoryProductRepository()
		s.Users = repository.NewMemoryUserRepository()
	default:
		err = fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err == nil && cfg.Redis.Enabled {
		err = s.openRedis(ctx, cfg.Redis)
	}
	if err != nil {
		if closeErr := s.Close(); closeErr != nil {
			logger.Warn("Failed to release storage after open error", zap.Error(closeErr))
		}
		return nil, err
	}

	switch {
	case s.Redis != nil:
		s.Sessions = redisstore.NewSessionRepository(s.Redis, redisstore.DefaultKeyPrefix)
	case s.postgres != nil:
		s.Sessions = pgstore.NewSessionRepository(s.postgres.DB())
	default:
		s.Sessions = repository.NewMemorySessionRepository(sweepInterval(cfg.Auth.SessionTTL))
	}

	logger.Info("Storage ready",
		zap.String("driver", s.driver),
		zap.Bool("redis_sessions", s.Redis != nil),
	)
	return s, nil
}

func (s *Storage) openPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	s.postgres = db

	if err := database.RunMigrations(db.DB().DB, cfg.Storage.MigrationsDir, logger); err != nil {
		return err
	}

	s.Products = pgstore.NewProductRepository(db.DB())
	s.Users = pgstore.NewUserRepository(db.DB())
	return nil
}

func (s *Storage) openMongo(ctx context.Context, cfg *config.Config) error {
	client, db, err := database.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	s.mongo = client

	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	s.Products = mongostore.NewProductRepository(db)
	s.Users = mongostore.NewUserRepository(db)
	return nil
}

func (s *Storage) openRedis(ctx context.Context, cfg config.RedisConfig) error {
	s.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Redis.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	return nil
}

// Health reports the state of every backend in use and whether all of them
// answered
func (s *Storage) Health(ctx context.Context) (map[string]interface{}, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	health := map[string]interface{}{"driver": s.driver}
	healthy := true

	switch {
	case s.postgres != nil:
		stats := s.postgres.Health(ctx)
		health["postgres"] = stats
		healthy = stats["status"] == "up"
	case s.mongo != nil:
		err := s.mongo.Ping(ctx, readpref.Primary())
		health["mongo"] = status(err)
		healthy = err == nil
	}
	if s.Redis != nil {
		err := s.Redis.Ping(ctx).Err()
		health["redis"] = status(err)
		healthy = healthy && err == nil
	}
	return health, healthy
}

// Close releases every connection. It is safe to call on partially opened
// storage.
func (s *Storage) Close() error {
	var errs []error

	if s.Sessions != nil {
		if err := s.Sessions.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close session store: %w", err))
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	if s.postgres != nil {
		if err := s.postgres.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	if s.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to disconnect mongo: %w", err))
		}
	}

	return errors.Join(errs...)
}

func status(err error) string {
	if err != nil {
		return "down"
	}
	return "up"
}

func sweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if ttl < maxSweepInterval {
		return ttl
	}
	return maxSweepInterval
}
