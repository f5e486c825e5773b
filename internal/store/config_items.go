package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"trading-bot-backend/internal/types"
)

// ErrEmptyKey is returned when a config item has a blank key.
var ErrEmptyKey = errors.New("config key cannot be empty")

// ListConfig returns every config item ordered by key.
func (s *Session) ListConfig(ctx context.Context) ([]types.ConfigItem, error) {
	q, err := s.q()
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, `SELECT id, key, value, updated_at, active FROM config_items ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("query config: %w", err)
	}
	defer rows.Close()

	items := make([]types.ConfigItem, 0)
	for rows.Next() {
		item, err := scanConfigItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpsertConfig stores value as JSON under key, creating or replacing it.
func (s *Session) UpsertConfig(ctx context.Context, key string, value any) (*types.ConfigItem, error) {
	q, err := s.q()
	if err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrEmptyKey
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode config value: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO config_items (key, value, updated_at, active) VALUES (?, ?, ?, 1)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at, active = 1`,
		key, string(raw), toMicros(s.now()))
	if err != nil {
		return nil, fmt.Errorf("upsert config %s: %w", key, err)
	}

	item, err := scanConfigItem(q.QueryRowContext(ctx,
		`SELECT id, key, value, updated_at, active FROM config_items WHERE key = ?`, key))
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteConfig removes key, returning ErrNotFound if it does not exist.
func (s *Session) DeleteConfig(ctx context.Context, key string) error {
	q, err := s.q()
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, `DELETE FROM config_items WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete config %s: %w", key, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("config %q: %w", key, ErrNotFound)
	}
	return nil
}

func scanConfigItem(r rowScanner) (types.ConfigItem, error) {
	var (
		item      types.ConfigItem
		raw       string
		updatedAt int64
		active    int
	)
	if err := r.Scan(&item.ID, &item.Key, &raw, &updatedAt, &active); err != nil {
		return types.ConfigItem{}, fmt.Errorf("scan config item: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &item.Value); err != nil {
		return types.ConfigItem{}, fmt.Errorf("decode config %s: %w", item.Key, err)
	}
	item.UpdatedAt = fromMicros(updatedAt)
	item.Active = active != 0
	return item, nil
}
