package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/cartkeeper/internal/model"
)

// DefaultListTitle titles lists created without one.
const DefaultListTitle = "Shopping List"

const listColumns = `id, store_id, title, completed_at, created_at, updated_at, deleted_at`

func scanList(row scanner) (model.ShoppingList, error) {
	var (
		l         model.ShoppingList
		completed sql.NullString
		ts        timestamps
	)
	if err := row.Scan(append([]any{&l.ID, &l.StoreID, &l.Title, &completed}, ts.dest()...)...); err != nil {
		return model.ShoppingList{}, err
	}
	var err error
	if l.CompletedAt, err = parseNullTime(completed); err != nil {
		return model.ShoppingList{}, err
	}
	return l, ts.into(&l.Timestamps)
}

// CreateList adds a shopping list to a store.
func (s *Store) CreateList(ctx context.Context, storeID, title string) (model.ShoppingList, error) {
	var l model.ShoppingList
	err := s.withTx(ctx, func(q querier) error {
		if _, err := getStore(ctx, q, storeID); err != nil {
			return err
		}
		var err error
		l, err = s.insertList(ctx, q, storeID, title)
		return err
	})
	if err != nil {
		return model.ShoppingList{}, err
	}
	s.publish()
	return l, nil
}

func (s *Store) insertList(ctx context.Context, q querier, storeID, title string) (model.ShoppingList, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultListTitle
	}
	now := s.now()
	l := model.ShoppingList{
		ID:         s.ids.NewID(),
		StoreID:    storeID,
		Title:      title,
		Timestamps: model.Timestamps{CreatedAt: now, UpdatedAt: now},
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO shopping_list (id, store_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, l.ID, l.StoreID, l.Title, formatTime(now), formatTime(now))
	if err != nil {
		return model.ShoppingList{}, mapWriteErr("list", "insert list", err)
	}
	return l, nil
}

// ListLists returns a store's live lists, oldest first.
func (s *Store) ListLists(ctx context.Context, storeID string) ([]model.ShoppingList, error) {
	rows, err := s.reader().QueryContext(ctx, `
		SELECT `+listColumns+` FROM shopping_list
		WHERE store_id = ? AND deleted_at IS NULL
		ORDER BY created_at ASC, id ASC
	`, storeID)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	return scanAll(rows, scanList)
}

// GetList returns a live shopping list.
func (s *Store) GetList(ctx context.Context, id string) (model.ShoppingList, error) {
	return getList(ctx, s.reader(), id)
}

func getList(ctx context.Context, q querier, id string) (model.ShoppingList, error) {
	l, err := scanList(q.QueryRowContext(ctx,
		`SELECT `+listColumns+` FROM shopping_list WHERE id = ? AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ShoppingList{}, NotFound("list", id)
	}
	if err != nil {
		return model.ShoppingList{}, fmt.Errorf("get list: %w", err)
	}
	return l, nil
}

// UpdateList applies a patch to a shopping list.
func (s *Store) UpdateList(ctx context.Context, id string, patch model.ListPatch) (model.ShoppingList, error) {
	var l model.ShoppingList
	err := s.withTx(ctx, func(q querier) error {
		var err error
		if l, err = getList(ctx, q, id); err != nil {
			return err
		}
		if patch.Title != nil {
			title := strings.TrimSpace(*patch.Title)
			if title == "" {
				return ConstraintViolation("list", "title is required", nil)
			}
			l.Title = title
		}
		l.UpdatedAt = s.now()
		_, err = q.ExecContext(ctx, `UPDATE shopping_list SET title = ?, updated_at = ? WHERE id = ?`,
			l.Title, formatTime(l.UpdatedAt), l.ID)
		return mapWriteErr("list", "update list", err)
	})
	if err != nil {
		return model.ShoppingList{}, err
	}
	s.publish()
	return l, nil
}

// CompleteList marks a list completed. Completing a completed list keeps the
// original completion time.
func (s *Store) CompleteList(ctx context.Context, id string) (model.ShoppingList, error) {
	var l model.ShoppingList
	err := s.withTx(ctx, func(q querier) error {
		var err error
		if l, err = getList(ctx, q, id); err != nil {
			return err
		}
		if l.Completed() {
			return nil
		}
		now := s.now()
		l.CompletedAt, l.UpdatedAt = &now, now
		_, err = q.ExecContext(ctx,
			`UPDATE shopping_list SET completed_at = ?, updated_at = ? WHERE id = ?`,
			formatTime(now), formatTime(now), l.ID)
		return err
	})
	if err != nil {
		return model.ShoppingList{}, err
	}
	s.publish()
	return l, nil
}

// DeleteList soft-deletes a list and its entries.
func (s *Store) DeleteList(ctx context.Context, id string) error {
	err := s.withTx(ctx, func(q querier) error {
		if _, err := getList(ctx, q, id); err != nil {
			return err
		}
		now := formatTime(s.now())
		if _, err := q.ExecContext(ctx, `
			UPDATE shopping_list_item SET deleted_at = ?, updated_at = ?
			WHERE list_id = ? AND deleted_at IS NULL
		`, now, now, id); err != nil {
			return fmt.Errorf("delete list items: %w", err)
		}
		_, err := q.ExecContext(ctx,
			`UPDATE shopping_list SET deleted_at = ?, updated_at = ? WHERE id = ?`, now, now, id)
		return err
	})
	if err != nil {
		return err
	}
	s.publish()
	return nil
}

// ActiveList returns the store's newest uncompleted list, creating one when
// every list is completed or deleted.
func (s *Store) ActiveList(ctx context.Context, storeID string) (model.ShoppingList, error) {
	var (
		l       model.ShoppingList
		created bool
	)
	err := s.withTx(ctx, func(q querier) error {
		if _, err := getStore(ctx, q, storeID); err != nil {
			return err
		}
		var err error
		l, err = scanList(q.QueryRowContext(ctx, `
			SELECT `+listColumns+` FROM shopping_list
			WHERE store_id = ? AND deleted_at IS NULL AND completed_at IS NULL
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		`, storeID))
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("active list: %w", err)
		}
		created = true
		l, err = s.insertList(ctx, q, storeID, "")
		return err
	})
	if err != nil {
		return model.ShoppingList{}, err
	}
	if created {
		s.publish()
	}
	return l, nil
}
