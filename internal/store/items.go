package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/cartkeeper/internal/model"
	"github.com/roach88/cartkeeper/internal/normalize"
)

const itemColumns = `id, store_id, name, name_norm, aisle_id, section_id, usage_count,
	last_used_at, is_hidden, is_favorite, created_at, updated_at, deleted_at`

func scanItem(row scanner) (model.Item, error) {
	var (
		it               model.Item
		aisleID, section sql.NullString
		lastUsed         sql.NullString
		ts               timestamps
	)
	dest := []any{&it.ID, &it.StoreID, &it.Name, &it.NameNorm, &aisleID, &section,
		&it.UsageCount, &lastUsed, &it.IsHidden, &it.IsFavorite}
	if err := row.Scan(append(dest, ts.dest()...)...); err != nil {
		return model.Item{}, err
	}
	it.AisleID = stringPtr(aisleID)
	it.SectionID = stringPtr(section)
	var err error
	if it.LastUsedAt, err = parseNullTime(lastUsed); err != nil {
		return model.Item{}, err
	}
	return it, ts.into(&it.Timestamps)
}

// CreateItem adds a catalog item. The normalized name must be free among the
// store's live items, and any aisle or section must belong to the store.
func (s *Store) CreateItem(ctx context.Context, in model.NewItem) (model.Item, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Item{}, ConstraintViolation("item", "name is required", nil)
	}
	norm := normalize.Name(name)

	var it model.Item
	err := s.withTx(ctx, func(q querier) error {
		if _, err := getStore(ctx, q, in.StoreID); err != nil {
			return err
		}
		if err := checkNameFree(ctx, q, in.StoreID, norm, name, ""); err != nil {
			return err
		}
		aisleID, sectionID, err := placement(ctx, q, in.StoreID, in.AisleID, in.SectionID)
		if err != nil {
			return err
		}

		now := s.now()
		it = model.Item{
			ID:         s.ids.NewID(),
			StoreID:    in.StoreID,
			Name:       name,
			NameNorm:   norm,
			AisleID:    aisleID,
			SectionID:  sectionID,
			IsHidden:   in.IsHidden,
			IsFavorite: in.IsFavorite,
			Timestamps: model.Timestamps{CreatedAt: now, UpdatedAt: now},
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO store_item (id, store_id, name, name_norm, aisle_id, section_id,
				usage_count, is_hidden, is_favorite, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?)
		`, it.ID, it.StoreID, it.Name, it.NameNorm, stringArg(it.AisleID), stringArg(it.SectionID),
			it.IsHidden, it.IsFavorite, formatTime(now), formatTime(now))
		return mapWriteErr("item", "insert item", err)
	})
	if err != nil {
		return model.Item{}, err
	}
	s.publish()
	return it, nil
}

// checkNameFree rejects norm when another live item of the store has it.
// The partial unique index enforces the same rule; checking first gives a
// better message and the id of the existing item.
func checkNameFree(ctx context.Context, q querier, storeID, norm, name, exceptID string) error {
	var existing string
	err := q.QueryRowContext(ctx, `
		SELECT id FROM store_item
		WHERE store_id = ? AND name_norm = ? AND deleted_at IS NULL AND id <> ?
	`, storeID, norm, exceptID).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check item name: %w", err)
	}
	return &Error{
		Code:    ErrCodeConstraint,
		Entity:  "item",
		ID:      existing,
		Message: fmt.Sprintf("an item named %q already exists in this store", name),
	}
}

// placement validates an item's aisle and section against storeID. A section
// given without an aisle brings its own aisle.
func placement(ctx context.Context, q querier, storeID string, aisleID, sectionID *string) (*string, *string, error) {
	aisleID, sectionID = nonEmpty(aisleID), nonEmpty(sectionID)

	if sectionID != nil {
		sec, err := getSection(ctx, q, *sectionID)
		if err != nil {
			return nil, nil, err
		}
		if sec.StoreID != storeID {
			return nil, nil, &Error{Code: ErrCodeConstraint, Entity: "section", ID: sec.ID,
				Message: "section belongs to a different store"}
		}
		if aisleID == nil {
			aisleID = &sec.AisleID
		} else if *aisleID != sec.AisleID {
			return nil, nil, &Error{Code: ErrCodeConstraint, Entity: "section", ID: sec.ID,
				Message: "section is not in the given aisle"}
		}
	}
	if aisleID != nil {
		a, err := getAisle(ctx, q, *aisleID)
		if err != nil {
			return nil, nil, err
		}
		if a.StoreID != storeID {
			return nil, nil, &Error{Code: ErrCodeConstraint, Entity: "aisle", ID: a.ID,
				Message: "aisle belongs to a different store"}
		}
	}
	return aisleID, sectionID, nil
}

func nonEmpty(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return p
}

// ListItems returns a store's live catalog items, oldest first.
func (s *Store) ListItems(ctx context.Context, storeID string) ([]model.Item, error) {
	rows, err := s.reader().QueryContext(ctx, `
		SELECT `+itemColumns+` FROM store_item
		WHERE store_id = ? AND deleted_at IS NULL
		ORDER BY created_at ASC, id ASC
	`, storeID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return scanAll(rows, scanItem)
}

// GetItem returns a live catalog item.
func (s *Store) GetItem(ctx context.Context, id string) (model.Item, error) {
	return getItem(ctx, s.reader(), id)
}

func getItem(ctx context.Context, q querier, id string) (model.Item, error) {
	it, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM store_item WHERE id = ? AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, NotFound("item", id)
	}
	if err != nil {
		return model.Item{}, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// FindItemByName returns the live item of a store whose normalized name
// equals the normalized form of name.
func (s *Store) FindItemByName(ctx context.Context, storeID, name string) (model.Item, error) {
	norm := normalize.Name(name)
	it, err := scanItem(s.reader().QueryRowContext(ctx, `
		SELECT `+itemColumns+` FROM store_item
		WHERE store_id = ? AND name_norm = ? AND deleted_at IS NULL
	`, storeID, norm))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, &Error{
			Code:    ErrCodeNotFound,
			Entity:  "item",
			Message: fmt.Sprintf("no item named %q", norm),
		}
	}
	if err != nil {
		return model.Item{}, fmt.Errorf("find item: %w", err)
	}
	return it, nil
}

// UpdateItem applies a patch to a catalog item. A rename re-derives the
// normalized name and is subject to the same uniqueness rule as CreateItem.
//
// Setting a new aisle without touching the section keeps the section only if
// it is in the new aisle. Setting a section without touching the aisle moves
// the item to the section's aisle.
func (s *Store) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (model.Item, error) {
	var it model.Item
	err := s.withTx(ctx, func(q querier) error {
		var err error
		if it, err = getItem(ctx, q, id); err != nil {
			return err
		}

		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return ConstraintViolation("item", "name is required", nil)
			}
			norm := normalize.Name(name)
			if err := checkNameFree(ctx, q, it.StoreID, norm, name, it.ID); err != nil {
				return err
			}
			it.Name, it.NameNorm = name, norm
		}

		aisleID, sectionID := it.AisleID, it.SectionID
		switch {
		case patch.Aisle.Set && patch.Section.Set:
			aisleID, sectionID = patch.Aisle.ID, patch.Section.ID
		case patch.Aisle.Set:
			aisleID = patch.Aisle.ID
			if sectionID != nil {
				sec, err := getSection(ctx, q, *sectionID)
				if err != nil || aisleID == nil || sec.AisleID != *aisleID {
					sectionID = nil
				}
			}
		case patch.Section.Set:
			sectionID = patch.Section.ID
			if nonEmpty(sectionID) != nil {
				aisleID = nil
			}
		}
		if it.AisleID, it.SectionID, err = placement(ctx, q, it.StoreID, aisleID, sectionID); err != nil {
			return err
		}

		if patch.IsHidden != nil {
			it.IsHidden = *patch.IsHidden
		}
		if patch.IsFavorite != nil {
			it.IsFavorite = *patch.IsFavorite
		}
		it.UpdatedAt = s.now()

		_, err = q.ExecContext(ctx, `
			UPDATE store_item
			SET name = ?, name_norm = ?, aisle_id = ?, section_id = ?,
				is_hidden = ?, is_favorite = ?, updated_at = ?
			WHERE id = ?
		`, it.Name, it.NameNorm, stringArg(it.AisleID), stringArg(it.SectionID),
			it.IsHidden, it.IsFavorite, formatTime(it.UpdatedAt), it.ID)
		return mapWriteErr("item", "update item", err)
	})
	if err != nil {
		return model.Item{}, err
	}
	s.publish()
	return it, nil
}

// DeleteItem soft-deletes a catalog item. List entries that reference it
// keep their snapshot.
func (s *Store) DeleteItem(ctx context.Context, id string) error {
	err := s.withTx(ctx, func(q querier) error {
		if _, err := getItem(ctx, q, id); err != nil {
			return err
		}
		now := formatTime(s.now())
		_, err := q.ExecContext(ctx,
			`UPDATE store_item SET deleted_at = ?, updated_at = ? WHERE id = ?`, now, now, id)
		return err
	})
	if err != nil {
		return err
	}
	s.publish()
	return nil
}

// TouchItem records one use of a catalog item.
func (s *Store) TouchItem(ctx context.Context, id string) (model.Item, error) {
	var it model.Item
	err := s.withTx(ctx, func(q querier) error {
		if err := s.touchItem(ctx, q, id); err != nil {
			return err
		}
		var err error
		it, err = getItem(ctx, q, id)
		return err
	})
	if err != nil {
		return model.Item{}, err
	}
	s.publish()
	return it, nil
}

func (s *Store) touchItem(ctx context.Context, q querier, id string) error {
	now := formatTime(s.now())
	res, err := q.ExecContext(ctx, `
		UPDATE store_item
		SET usage_count = usage_count + 1, last_used_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, now, now, id)
	if err != nil {
		return fmt.Errorf("touch item: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("touch item: %w", err)
	} else if n == 0 {
		return NotFound("item", id)
	}
	return nil
}
