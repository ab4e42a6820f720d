package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"githubActivity/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultCacheTTL  = 60 * time.Second
	DefaultRetention = 100
)

// Cache holds raw API responses for a short while.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// History records every fetched event so it can be shown offline.
type History interface {
	Save(ctx context.Context, evs []model.RawEvent) error
	Recent(ctx context.Context, actor string, limit int) ([]model.RawEvent, error)
}

func cacheKey(username string) string {
	return "activity:" + strings.ToLower(username)
}

type RedisCache struct {
	Rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{Rdb: rdb}
}

func (r *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return r.Rdb.Set(ctx, key, data, ttl).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.Rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

type SQLHistory struct {
	db        *sql.DB
	retention int
}

// NewSQLHistory keeps at most retention events per actor.
func NewSQLHistory(db *sql.DB, retention int) *SQLHistory {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &SQLHistory{db: db, retention: retention}
}

func (h *SQLHistory) Save(ctx context.Context, evs []model.RawEvent) error {
	if len(evs) == 0 {
		return nil
	}
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	actors := map[string]struct{}{}
	for _, e := range evs {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO events
			(id, type, actor, repo, created_at, payload)
			VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, e.Type, e.Actor.Login, e.Repo.Name, e.CreatedAt, string(e.Payload),
		)
		if err != nil {
			return fmt.Errorf("save event %s: %w", e.ID, err)
		}
		actors[strings.ToLower(e.Actor.Login)] = struct{}{}
	}

	for actor := range actors {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM events
			WHERE actor = ? AND id NOT IN (
				SELECT id FROM events
				WHERE actor = ?
				ORDER BY created_at DESC
				LIMIT ?
			)`, actor, actor, h.retention)
		if err != nil {
			return fmt.Errorf("trim history for %s: %w", actor, err)
		}
	}
	return tx.Commit()
}

func (h *SQLHistory) Recent(ctx context.Context, actor string, limit int) ([]model.RawEvent, error) {
	if limit <= 0 {
		limit = h.retention
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, type, actor, repo, created_at, payload
		FROM events
		WHERE actor = ?
		ORDER BY created_at DESC
		LIMIT ?`, actor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RawEvent
	for rows.Next() {
		var (
			e       model.RawEvent
			payload sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Type, &e.Actor.Login, &e.Repo.Name, &e.CreatedAt, &payload); err != nil {
			return nil, err
		}
		if payload.Valid && payload.String != "" {
			e.Payload = []byte(payload.String)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
