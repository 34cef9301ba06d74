package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/lingua-backend/internal/data/db"
	"github.com/yungbote/lingua-backend/internal/platform/cache"
	"github.com/yungbote/lingua-backend/internal/platform/gcp"
	"github.com/yungbote/lingua-backend/internal/platform/logger"
	"github.com/yungbote/lingua-backend/internal/services/extraction"
)

type Clients struct {
	DB       *db.Service
	Redis    *goredis.Client
	Cache    cache.Cache
	Bucket   gcp.BucketService
	MediaDir string
	Vision   gcp.Vision
	Provider extraction.Provider
}

func openDB(log *logger.Logger, cfg DBConfig) (*db.Service, error) {
	return db.NewService(log, db.Config{
		Driver:           cfg.Driver,
		PostgresHost:     cfg.PostgresHost,
		PostgresPort:     cfg.PostgresPort,
		PostgresUser:     cfg.PostgresUser,
		PostgresPassword: cfg.PostgresPassword,
		PostgresName:     cfg.PostgresName,
		PostgresSSLMode:  cfg.PostgresSSLMode,
		SQLitePath:       cfg.SQLitePath,
	})
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	dbs, err := openDB(log, cfg.DB)
	if err != nil {
		return Clients{}, fmt.Errorf("init database: %w", err)
	}
	c.DB = dbs

	// Redis is optional; without it the tree cache is a no-op.
	c.Cache = cache.Noop()
	if addr := strings.TrimSpace(cfg.Cache.RedisAddr); addr != "" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:        addr,
			Password:    cfg.Cache.RedisPassword,
			DB:          cfg.Cache.RedisDB,
			DialTimeout: 5 * time.Second,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			c.Close()
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		c.Redis = rdb
		c.Cache = cache.NewRedisFromClient(log, rdb, cfg.Cache.KeyPrefix)
	}

	c.Bucket, c.MediaDir, err = resolveBucketService(log, cfg.Storage)
	if err != nil {
		c.Close()
		return Clients{}, err
	}

	if cfg.Extraction.VisionOCREnabled {
		v, err := gcp.NewVision(log)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init vision client: %w", err)
		}
		c.Vision = v
	}

	c.Provider, err = resolveExtractionProvider(ctx, log, cfg.Extraction)
	if err != nil {
		c.Close()
		return Clients{}, err
	}
	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Vision != nil {
		_ = c.Vision.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}
