package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/cartkeeper/internal/model"
)

const aisleColumns = `id, store_id, name, sort_order, created_at, updated_at, deleted_at`

func scanAisle(row scanner) (model.Aisle, error) {
	var a model.Aisle
	var ts timestamps
	if err := row.Scan(append([]any{&a.ID, &a.StoreID, &a.Name, &a.SortOrder}, ts.dest()...)...); err != nil {
		return model.Aisle{}, err
	}
	return a, ts.into(&a.Timestamps)
}

// CreateAisle adds an aisle to a store. Without an explicit sort order the
// aisle goes after the store's current last aisle.
func (s *Store) CreateAisle(ctx context.Context, in model.NewAisle) (model.Aisle, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Aisle{}, ConstraintViolation("aisle", "name is required", nil)
	}

	var a model.Aisle
	err := s.withTx(ctx, func(q querier) error {
		if _, err := getStore(ctx, q, in.StoreID); err != nil {
			return err
		}

		sortOrder, err := nextSortOrder(ctx, q, in.SortOrder,
			`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM store_aisle WHERE store_id = ? AND deleted_at IS NULL`,
			in.StoreID)
		if err != nil {
			return err
		}

		now := s.now()
		a = model.Aisle{
			ID:         s.ids.NewID(),
			StoreID:    in.StoreID,
			Name:       name,
			SortOrder:  sortOrder,
			Timestamps: model.Timestamps{CreatedAt: now, UpdatedAt: now},
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO store_aisle (id, store_id, name, sort_order, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, a.ID, a.StoreID, a.Name, a.SortOrder, formatTime(now), formatTime(now))
		return mapWriteErr("aisle", "insert aisle", err)
	})
	if err != nil {
		return model.Aisle{}, err
	}
	s.publish()
	return a, nil
}

// nextSortOrder returns explicit when set, else the value of query.
func nextSortOrder(ctx context.Context, q querier, explicit *int, query string, parentID string) (int, error) {
	if explicit != nil {
		return *explicit, nil
	}
	var next int
	if err := q.QueryRowContext(ctx, query, parentID).Scan(&next); err != nil {
		return 0, fmt.Errorf("next sort order: %w", err)
	}
	return next, nil
}

// ListAisles returns a store's live aisles by sort order, then creation time.
func (s *Store) ListAisles(ctx context.Context, storeID string) ([]model.Aisle, error) {
	return listAisles(ctx, s.reader(), storeID)
}

func listAisles(ctx context.Context, q querier, storeID string) ([]model.Aisle, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+aisleColumns+` FROM store_aisle
		WHERE store_id = ? AND deleted_at IS NULL
		ORDER BY sort_order ASC, created_at ASC, id ASC
	`, storeID)
	if err != nil {
		return nil, fmt.Errorf("list aisles: %w", err)
	}
	return scanAll(rows, scanAisle)
}

// GetAisle returns a live aisle.
func (s *Store) GetAisle(ctx context.Context, id string) (model.Aisle, error) {
	return getAisle(ctx, s.reader(), id)
}

func getAisle(ctx context.Context, q querier, id string) (model.Aisle, error) {
	a, err := scanAisle(q.QueryRowContext(ctx,
		`SELECT `+aisleColumns+` FROM store_aisle WHERE id = ? AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Aisle{}, NotFound("aisle", id)
	}
	if err != nil {
		return model.Aisle{}, fmt.Errorf("get aisle: %w", err)
	}
	return a, nil
}

// UpdateAisle applies a patch to an aisle.
func (s *Store) UpdateAisle(ctx context.Context, id string, patch model.AislePatch) (model.Aisle, error) {
	var a model.Aisle
	err := s.withTx(ctx, func(q querier) error {
		var err error
		if a, err = getAisle(ctx, q, id); err != nil {
			return err
		}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return ConstraintViolation("aisle", "name is required", nil)
			}
			a.Name = name
		}
		if patch.SortOrder != nil {
			a.SortOrder = *patch.SortOrder
		}
		a.UpdatedAt = s.now()
		_, err = q.ExecContext(ctx,
			`UPDATE store_aisle SET name = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
			a.Name, a.SortOrder, formatTime(a.UpdatedAt), a.ID)
		return mapWriteErr("aisle", "update aisle", err)
	})
	if err != nil {
		return model.Aisle{}, err
	}
	s.publish()
	return a, nil
}

// DeleteAisle soft-deletes an aisle and its sections. Catalog items that
// pointed at the aisle or one of its sections stay in the catalog with the
// reference cleared.
func (s *Store) DeleteAisle(ctx context.Context, id string) error {
	err := s.withTx(ctx, func(q querier) error {
		if _, err := getAisle(ctx, q, id); err != nil {
			return err
		}
		now := formatTime(s.now())

		if _, err := q.ExecContext(ctx, `
			UPDATE store_item SET section_id = NULL, updated_at = ?
			WHERE deleted_at IS NULL
			  AND section_id IN (SELECT id FROM store_section WHERE aisle_id = ?)
		`, now, id); err != nil {
			return fmt.Errorf("clear item sections: %w", err)
		}
		if _, err := q.ExecContext(ctx, `
			UPDATE store_item SET aisle_id = NULL, updated_at = ?
			WHERE deleted_at IS NULL AND aisle_id = ?
		`, now, id); err != nil {
			return fmt.Errorf("clear item aisles: %w", err)
		}
		if _, err := q.ExecContext(ctx, `
			UPDATE store_section SET deleted_at = ?, updated_at = ?
			WHERE aisle_id = ? AND deleted_at IS NULL
		`, now, now, id); err != nil {
			return fmt.Errorf("delete sections: %w", err)
		}
		if _, err := q.ExecContext(ctx,
			`UPDATE store_aisle SET deleted_at = ?, updated_at = ? WHERE id = ?`,
			now, now, id); err != nil {
			return fmt.Errorf("delete aisle: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish()
	return nil
}

// ReorderAisles assigns new sort orders to aisles of one store in a single
// transaction. Every id must be a live aisle of storeID; otherwise nothing
// changes and a NOT_FOUND error names the first bad id.
func (s *Store) ReorderAisles(ctx context.Context, storeID string, updates []model.SortUpdate) error {
	return s.reorder(ctx, "aisle",
		`UPDATE store_aisle SET sort_order = ?, updated_at = ?
		 WHERE id = ? AND store_id = ? AND deleted_at IS NULL`,
		storeID, updates)
}

// reorder applies updates with stmt, which takes (sort_order, updated_at,
// id, parent_id) and must touch exactly one row per update.
func (s *Store) reorder(ctx context.Context, entity, stmt, parentID string, updates []model.SortUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(updates))
	for _, u := range updates {
		if seen[u.ID] {
			return &Error{
				Code:    ErrCodeConstraint,
				Entity:  entity,
				ID:      u.ID,
				Message: "id appears more than once in reorder",
			}
		}
		seen[u.ID] = true
	}

	err := s.withTx(ctx, func(q querier) error {
		now := formatTime(s.now())
		for _, u := range updates {
			res, err := q.ExecContext(ctx, stmt, u.SortOrder, now, u.ID, parentID)
			if err != nil {
				return fmt.Errorf("reorder %s %s: %w", entity, u.ID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("reorder %s %s: %w", entity, u.ID, err)
			}
			if n != 1 {
				return NotFound(entity, u.ID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish()
	return nil
}
