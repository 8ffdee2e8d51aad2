package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/cartkeeper/internal/model"
)

const storeColumns = `id, name, created_at, updated_at, deleted_at`

func scanStore(row scanner) (model.Store, error) {
	var st model.Store
	var ts timestamps
	if err := row.Scan(append([]any{&st.ID, &st.Name}, ts.dest()...)...); err != nil {
		return model.Store{}, err
	}
	return st, ts.into(&st.Timestamps)
}

// CreateStore adds a store.
func (s *Store) CreateStore(ctx context.Context, name string) (model.Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Store{}, ConstraintViolation("store", "name is required", nil)
	}

	st, err := s.insertStore(ctx, s.reader(), name)
	if err != nil {
		return model.Store{}, err
	}
	s.publish()
	return st, nil
}

func (s *Store) insertStore(ctx context.Context, q querier, name string) (model.Store, error) {
	now := s.now()
	st := model.Store{
		ID:         s.ids.NewID(),
		Name:       name,
		Timestamps: model.Timestamps{CreatedAt: now, UpdatedAt: now},
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO store (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		st.ID, st.Name, formatTime(now), formatTime(now))
	if err != nil {
		return model.Store{}, mapWriteErr("store", "insert store", err)
	}
	return st, nil
}

// ListStores returns live stores, oldest first.
func (s *Store) ListStores(ctx context.Context) ([]model.Store, error) {
	return listStores(ctx, s.reader())
}

func listStores(ctx context.Context, q querier) ([]model.Store, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+storeColumns+` FROM store
		WHERE deleted_at IS NULL
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return scanAll(rows, scanStore)
}

// GetStore returns a live store.
func (s *Store) GetStore(ctx context.Context, id string) (model.Store, error) {
	return getStore(ctx, s.reader(), id)
}

func getStore(ctx context.Context, q querier, id string) (model.Store, error) {
	st, err := scanStore(q.QueryRowContext(ctx,
		`SELECT `+storeColumns+` FROM store WHERE id = ? AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Store{}, NotFound("store", id)
	}
	if err != nil {
		return model.Store{}, fmt.Errorf("get store: %w", err)
	}
	return st, nil
}

// UpdateStore renames a store.
func (s *Store) UpdateStore(ctx context.Context, id, name string) (model.Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Store{}, ConstraintViolation("store", "name is required", nil)
	}

	var st model.Store
	err := s.withTx(ctx, func(q querier) error {
		var err error
		if st, err = getStore(ctx, q, id); err != nil {
			return err
		}
		st.Name = name
		st.UpdatedAt = s.now()
		_, err = q.ExecContext(ctx, `UPDATE store SET name = ?, updated_at = ? WHERE id = ?`,
			st.Name, formatTime(st.UpdatedAt), st.ID)
		return mapWriteErr("store", "update store", err)
	})
	if err != nil {
		return model.Store{}, err
	}
	s.publish()
	return st, nil
}

// DeleteStore soft-deletes a store and everything in it: aisles, sections,
// catalog items, lists and list items. The last live store cannot be deleted.
func (s *Store) DeleteStore(ctx context.Context, id string) error {
	err := s.withTx(ctx, func(q querier) error {
		if _, err := getStore(ctx, q, id); err != nil {
			return err
		}

		var live int
		if err := q.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM store WHERE deleted_at IS NULL`).Scan(&live); err != nil {
			return fmt.Errorf("count stores: %w", err)
		}
		if live <= 1 {
			return &Error{
				Code:    ErrCodeConstraint,
				Entity:  "store",
				ID:      id,
				Message: "cannot delete the last store",
			}
		}

		now := formatTime(s.now())
		stmts := []string{
			`UPDATE shopping_list_item SET deleted_at = ?, updated_at = ? WHERE store_id = ? AND deleted_at IS NULL`,
			`UPDATE shopping_list SET deleted_at = ?, updated_at = ? WHERE store_id = ? AND deleted_at IS NULL`,
			`UPDATE store_item SET deleted_at = ?, updated_at = ? WHERE store_id = ? AND deleted_at IS NULL`,
			`UPDATE store_section SET deleted_at = ?, updated_at = ? WHERE store_id = ? AND deleted_at IS NULL`,
			`UPDATE store_aisle SET deleted_at = ?, updated_at = ? WHERE store_id = ? AND deleted_at IS NULL`,
			`UPDATE store SET deleted_at = ?, updated_at = ? WHERE id = ?`,
		}
		for _, stmt := range stmts {
			if _, err := q.ExecContext(ctx, stmt, now, now, id); err != nil {
				return fmt.Errorf("delete store: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("store deleted", "id", id)
	s.publish()
	return nil
}

// EnsureDefaultStore creates DefaultStoreName when no live store exists. It
// returns the first live store and whether it was created.
func (s *Store) EnsureDefaultStore(ctx context.Context) (model.Store, bool, error) {
	var (
		st      model.Store
		created bool
	)
	err := s.withTx(ctx, func(q querier) error {
		var err error
		st, created, err = s.ensureDefaultStore(ctx, q)
		return err
	})
	if err != nil {
		return model.Store{}, false, err
	}
	if created {
		s.logger.Info("created default store", "id", st.ID, "name", st.Name)
		s.publish()
	}
	return st, created, nil
}

func (s *Store) ensureDefaultStore(ctx context.Context, q querier) (model.Store, bool, error) {
	stores, err := listStores(ctx, q)
	if err != nil {
		return model.Store{}, false, err
	}
	if len(stores) > 0 {
		return stores[0], false, nil
	}
	st, err := s.insertStore(ctx, q, DefaultStoreName)
	if err != nil {
		return model.Store{}, false, err
	}
	return st, true, nil
}
