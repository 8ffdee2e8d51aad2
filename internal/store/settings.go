package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/cartkeeper/internal/model"
)

// GetSetting returns a setting.
func (s *Store) GetSetting(ctx context.Context, key string) (model.Setting, error) {
	var (
		st      = model.Setting{Key: key}
		updated string
	)
	err := s.reader().QueryRowContext(ctx,
		`SELECT value, updated_at FROM app_setting WHERE key = ?`, key).Scan(&st.Value, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Setting{}, NotFound("setting", key)
	}
	if err != nil {
		return model.Setting{}, fmt.Errorf("get setting: %w", err)
	}
	if st.UpdatedAt, err = parseTime(updated); err != nil {
		return model.Setting{}, err
	}
	return st, nil
}

// ListSettings returns every setting ordered by key.
func (s *Store) ListSettings(ctx context.Context) ([]model.Setting, error) {
	rows, err := s.reader().QueryContext(ctx, `SELECT key, value, updated_at FROM app_setting ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return scanAll(rows, func(row scanner) (model.Setting, error) {
		var st model.Setting
		var updated string
		if err := row.Scan(&st.Key, &st.Value, &updated); err != nil {
			return model.Setting{}, err
		}
		var err error
		st.UpdatedAt, err = parseTime(updated)
		return st, err
	})
}

// SetSetting creates or replaces a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) (model.Setting, error) {
	if key == "" {
		return model.Setting{}, ConstraintViolation("setting", "key is required", nil)
	}
	st := model.Setting{Key: key, Value: value, UpdatedAt: s.now()}
	_, err := s.reader().ExecContext(ctx, `
		INSERT INTO app_setting (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, st.Key, st.Value, formatTime(st.UpdatedAt))
	if err != nil {
		return model.Setting{}, mapWriteErr("setting", "set setting", err)
	}
	s.publish()
	return st, nil
}

// DeleteSetting removes a setting. Settings are not soft-deleted.
func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	res, err := s.reader().ExecContext(ctx, `DELETE FROM app_setting WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("delete setting: %w", err)
	} else if n == 0 {
		return NotFound("setting", key)
	}
	s.publish()
	return nil
}
