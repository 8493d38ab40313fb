package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/akinalp/boardwatch/config"
	"github.com/akinalp/boardwatch/database"
	"github.com/akinalp/boardwatch/repository"
)

// Repositories holds the storage layer.
type Repositories struct {
	DB            *database.DB // nil when the store is disabled
	Notifications repository.NotificationRepository
	Cooldown      repository.CooldownStore

	// memoryCooldown is set for the memory backend so it can be pruned.
	memoryCooldown *repository.MemoryCooldownStore
	redis          *redis.Client
}

// initRepositories opens the database (store enabled) and the cooldown
// backend.
func initRepositories(ctx context.Context, cfg *config.Config, clk clock.Clock, log *zap.Logger) (*Repositories, error) {
	repos := &Repositories{}

	if cfg.Store.Enabled {
		if dir := filepath.Dir(cfg.Store.DatabasePath); dir != "." && cfg.Store.DatabasePath != database.MemoryPath {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		db, err := database.New(ctx, cfg.Store.DatabasePath, database.Migrations(), log)
		if err != nil {
			return nil, err
		}
		repos.DB = db
		repos.Notifications = repository.NewSQLiteNotificationRepo(db.Conn)
	}

	switch cfg.Cooldown.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			repos.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		repos.redis = client
		repos.Cooldown = repository.NewRedisCooldownStore(client, cfg.Redis.Prefix, cfg.Cooldown.Window)
		log.Info("cooldown gate on redis", zap.String("addr", cfg.Redis.Addr))
	default:
		mem := repository.NewMemoryCooldownStore(cfg.Cooldown.Window, cfg.Cooldown.Capacity, clk, log)
		repos.memoryCooldown = mem
		repos.Cooldown = mem
	}

	return repos, nil
}

// Close releases the database and redis connections.
func (r *Repositories) Close() {
	if r.redis != nil {
		r.redis.Close()
	}
	if r.DB != nil {
		r.DB.Close()
	}
}
