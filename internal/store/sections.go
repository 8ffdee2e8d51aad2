package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/cartkeeper/internal/model"
)

const sectionColumns = `id, store_id, aisle_id, name, sort_order, created_at, updated_at, deleted_at`

func scanSection(row scanner) (model.Section, error) {
	var sec model.Section
	var ts timestamps
	if err := row.Scan(append([]any{&sec.ID, &sec.StoreID, &sec.AisleID, &sec.Name, &sec.SortOrder}, ts.dest()...)...); err != nil {
		return model.Section{}, err
	}
	return sec, ts.into(&sec.Timestamps)
}

// CreateSection adds a section to a live aisle. The section inherits the
// aisle's store.
func (s *Store) CreateSection(ctx context.Context, in model.NewSection) (model.Section, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Section{}, ConstraintViolation("section", "name is required", nil)
	}

	var sec model.Section
	err := s.withTx(ctx, func(q querier) error {
		a, err := getAisle(ctx, q, in.AisleID)
		if err != nil {
			return err
		}

		sortOrder, err := nextSortOrder(ctx, q, in.SortOrder,
			`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM store_section WHERE aisle_id = ? AND deleted_at IS NULL`,
			a.ID)
		if err != nil {
			return err
		}

		now := s.now()
		sec = model.Section{
			ID:         s.ids.NewID(),
			StoreID:    a.StoreID,
			AisleID:    a.ID,
			Name:       name,
			SortOrder:  sortOrder,
			Timestamps: model.Timestamps{CreatedAt: now, UpdatedAt: now},
		}
		_, err = q.ExecContext(ctx, `
			INSERT INTO store_section (id, store_id, aisle_id, name, sort_order, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, sec.ID, sec.StoreID, sec.AisleID, sec.Name, sec.SortOrder, formatTime(now), formatTime(now))
		return mapWriteErr("section", "insert section", err)
	})
	if err != nil {
		return model.Section{}, err
	}
	s.publish()
	return sec, nil
}

// ListSections returns a store's live sections grouped by aisle order.
func (s *Store) ListSections(ctx context.Context, storeID string) ([]model.Section, error) {
	return listSections(ctx, s.reader(), storeID)
}

func listSections(ctx context.Context, q querier, storeID string) ([]model.Section, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT s.id, s.store_id, s.aisle_id, s.name, s.sort_order, s.created_at, s.updated_at, s.deleted_at
		FROM store_section s
		JOIN store_aisle a ON a.id = s.aisle_id
		WHERE s.store_id = ? AND s.deleted_at IS NULL AND a.deleted_at IS NULL
		ORDER BY a.sort_order ASC, a.created_at ASC, a.id ASC,
		         s.sort_order ASC, s.created_at ASC, s.id ASC
	`, storeID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return scanAll(rows, scanSection)
}

// ListSectionsByAisle returns an aisle's live sections by sort order, then
// creation time.
func (s *Store) ListSectionsByAisle(ctx context.Context, aisleID string) ([]model.Section, error) {
	rows, err := s.reader().QueryContext(ctx, `
		SELECT `+sectionColumns+` FROM store_section
		WHERE aisle_id = ? AND deleted_at IS NULL
		ORDER BY sort_order ASC, created_at ASC, id ASC
	`, aisleID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return scanAll(rows, scanSection)
}

// GetSection returns a live section.
func (s *Store) GetSection(ctx context.Context, id string) (model.Section, error) {
	return getSection(ctx, s.reader(), id)
}

func getSection(ctx context.Context, q querier, id string) (model.Section, error) {
	sec, err := scanSection(q.QueryRowContext(ctx,
		`SELECT `+sectionColumns+` FROM store_section WHERE id = ? AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Section{}, NotFound("section", id)
	}
	if err != nil {
		return model.Section{}, fmt.Errorf("get section: %w", err)
	}
	return sec, nil
}

// UpdateSection applies a patch to a section. Moving it to an aisle of a
// different store is a constraint violation.
func (s *Store) UpdateSection(ctx context.Context, id string, patch model.SectionPatch) (model.Section, error) {
	var sec model.Section
	err := s.withTx(ctx, func(q querier) error {
		var err error
		if sec, err = getSection(ctx, q, id); err != nil {
			return err
		}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return ConstraintViolation("section", "name is required", nil)
			}
			sec.Name = name
		}
		if patch.AisleID != nil && *patch.AisleID != sec.AisleID {
			a, err := getAisle(ctx, q, *patch.AisleID)
			if err != nil {
				return err
			}
			if a.StoreID != sec.StoreID {
				return &Error{
					Code:    ErrCodeConstraint,
					Entity:  "section",
					ID:      sec.ID,
					Message: "aisle belongs to a different store",
				}
			}
			sec.AisleID = a.ID
			// Items keep their section; bring their aisle along.
			if _, err := q.ExecContext(ctx, `
				UPDATE store_item SET aisle_id = ?, updated_at = ?
				WHERE section_id = ? AND deleted_at IS NULL
			`, a.ID, formatTime(s.now()), sec.ID); err != nil {
				return fmt.Errorf("move item aisles: %w", err)
			}
		}
		if patch.SortOrder != nil {
			sec.SortOrder = *patch.SortOrder
		}
		sec.UpdatedAt = s.now()
		_, err = q.ExecContext(ctx,
			`UPDATE store_section SET name = ?, aisle_id = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
			sec.Name, sec.AisleID, sec.SortOrder, formatTime(sec.UpdatedAt), sec.ID)
		return mapWriteErr("section", "update section", err)
	})
	if err != nil {
		return model.Section{}, err
	}
	s.publish()
	return sec, nil
}

// DeleteSection soft-deletes a section. Catalog items in it keep their aisle
// and lose the section.
func (s *Store) DeleteSection(ctx context.Context, id string) error {
	err := s.withTx(ctx, func(q querier) error {
		if _, err := getSection(ctx, q, id); err != nil {
			return err
		}
		now := formatTime(s.now())
		if _, err := q.ExecContext(ctx, `
			UPDATE store_item SET section_id = NULL, updated_at = ?
			WHERE section_id = ? AND deleted_at IS NULL
		`, now, id); err != nil {
			return fmt.Errorf("clear item sections: %w", err)
		}
		if _, err := q.ExecContext(ctx,
			`UPDATE store_section SET deleted_at = ?, updated_at = ? WHERE id = ?`,
			now, now, id); err != nil {
			return fmt.Errorf("delete section: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish()
	return nil
}

// ReorderSections assigns new sort orders to sections of one aisle in a
// single transaction, with the same all-or-nothing rule as ReorderAisles.
func (s *Store) ReorderSections(ctx context.Context, aisleID string, updates []model.SortUpdate) error {
	return s.reorder(ctx, "section",
		`UPDATE store_section SET sort_order = ?, updated_at = ?
		 WHERE id = ? AND aisle_id = ? AND deleted_at IS NULL`,
		aisleID, updates)
}
