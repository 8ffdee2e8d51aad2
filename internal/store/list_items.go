package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/roach88/cartkeeper/internal/model"
	"github.com/roach88/cartkeeper/internal/normalize"
)

const listItemColumns = `id, list_id, store_id, store_item_id, name, name_norm, qty, unit, notes,
	is_checked, checked_at, aisle_id, aisle_name_snap, aisle_sort_snap,
	section_id, section_name_snap, section_sort_snap, created_at, updated_at, deleted_at`

func scanListItem(row scanner) (model.ListItem, error) {
	var (
		li                     model.ListItem
		storeItemID, checkedAt sql.NullString
		aisleID, aisleName     sql.NullString
		sectionID, sectionName sql.NullString
		aisleSort, sectionSort sql.NullInt64
		ts                     timestamps
	)
	dest := []any{&li.ID, &li.ListID, &li.StoreID, &storeItemID, &li.Name, &li.NameNorm,
		&li.Qty, &li.Unit, &li.Notes, &li.IsChecked, &checkedAt,
		&aisleID, &aisleName, &aisleSort, &sectionID, &sectionName, &sectionSort}
	if err := row.Scan(append(dest, ts.dest()...)...); err != nil {
		return model.ListItem{}, err
	}

	li.StoreItemID = stringPtr(storeItemID)
	li.AisleID, li.AisleNameSnap, li.AisleSortSnap = stringPtr(aisleID), stringPtr(aisleName), intPtr(aisleSort)
	li.SectionID, li.SectionNameSnap, li.SectionSortSnap = stringPtr(sectionID), stringPtr(sectionName), intPtr(sectionSort)

	var err error
	if li.CheckedAt, err = parseNullTime(checkedAt); err != nil {
		return model.ListItem{}, err
	}
	return li, ts.into(&li.Timestamps)
}

// SaveListItem inserts a list entry when in.ID is empty and re-saves the
// entry otherwise. Every save re-reads the referenced catalog item and
// refreshes the aisle and section snapshot from its current placement. An
// insert that references a catalog item records a use of that item.
//
// An entry whose catalog item has since been deleted keeps its previous
// snapshot when re-saved with the same reference.
func (s *Store) SaveListItem(ctx context.Context, in model.ListItemInput) (model.ListItem, error) {
	if in.Qty < 0 || math.IsNaN(in.Qty) || math.IsInf(in.Qty, 0) {
		return model.ListItem{}, ConstraintViolation("list_item",
			fmt.Sprintf("quantity must be a non-negative number, got %v", in.Qty), nil)
	}

	var li model.ListItem
	insert := in.ID == ""
	err := s.withTx(ctx, func(q querier) error {
		now := s.now()
		if insert {
			l, err := getList(ctx, q, in.ListID)
			if err != nil {
				return err
			}
			li = model.ListItem{
				ID:         s.ids.NewID(),
				ListID:     l.ID,
				StoreID:    l.StoreID,
				Timestamps: model.Timestamps{CreatedAt: now},
			}
		} else {
			var err error
			if li, err = getListItem(ctx, q, in.ID); err != nil {
				return err
			}
			if in.ListID != "" && in.ListID != li.ListID {
				return &Error{Code: ErrCodeConstraint, Entity: "list_item", ID: li.ID,
					Message: "entry belongs to a different list"}
			}
		}

		ref := nonEmpty(in.StoreItemID)
		keepSnapshot := false
		name := strings.TrimSpace(in.Name)
		if ref != nil {
			it, err := getItem(ctx, q, *ref)
			switch {
			case IsNotFound(err) && !insert && li.StoreItemID != nil && *li.StoreItemID == *ref:
				keepSnapshot = true
			case err != nil:
				return err
			case it.StoreID != li.StoreID:
				return &Error{Code: ErrCodeConstraint, Entity: "item", ID: it.ID,
					Message: "item belongs to a different store"}
			default:
				if name == "" {
					name = it.Name
				}
				if err := snapshot(ctx, q, &li, it); err != nil {
					return err
				}
			}
		} else {
			clearSnapshot(&li)
		}
		if name == "" && keepSnapshot {
			name = li.Name
		}
		if name == "" {
			return ConstraintViolation("list_item", "name is required", nil)
		}

		li.StoreItemID = ref
		li.Name, li.NameNorm = name, normalize.Name(name)
		li.Qty, li.Unit, li.Notes = in.Qty, strings.TrimSpace(in.Unit), strings.TrimSpace(in.Notes)
		li.UpdatedAt = now

		if insert {
			if _, err := q.ExecContext(ctx, `
				INSERT INTO shopping_list_item (id, list_id, store_id, store_item_id, name, name_norm,
					qty, unit, notes, is_checked, aisle_id, aisle_name_snap, aisle_sort_snap,
					section_id, section_name_snap, section_sort_snap, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?, ?, ?, ?)
			`, li.ID, li.ListID, li.StoreID, stringArg(li.StoreItemID), li.Name, li.NameNorm,
				li.Qty, li.Unit, li.Notes,
				stringArg(li.AisleID), stringArg(li.AisleNameSnap), intArg(li.AisleSortSnap),
				stringArg(li.SectionID), stringArg(li.SectionNameSnap), intArg(li.SectionSortSnap),
				formatTime(li.CreatedAt), formatTime(li.UpdatedAt)); err != nil {
				return mapWriteErr("list_item", "insert list item", err)
			}
			if li.StoreItemID != nil {
				return s.touchItem(ctx, q, *li.StoreItemID)
			}
			return nil
		}

		_, err := q.ExecContext(ctx, `
			UPDATE shopping_list_item
			SET store_item_id = ?, name = ?, name_norm = ?, qty = ?, unit = ?, notes = ?,
				aisle_id = ?, aisle_name_snap = ?, aisle_sort_snap = ?,
				section_id = ?, section_name_snap = ?, section_sort_snap = ?, updated_at = ?
			WHERE id = ?
		`, stringArg(li.StoreItemID), li.Name, li.NameNorm, li.Qty, li.Unit, li.Notes,
			stringArg(li.AisleID), stringArg(li.AisleNameSnap), intArg(li.AisleSortSnap),
			stringArg(li.SectionID), stringArg(li.SectionNameSnap), intArg(li.SectionSortSnap),
			formatTime(li.UpdatedAt), li.ID)
		return mapWriteErr("list_item", "update list item", err)
	})
	if err != nil {
		return model.ListItem{}, err
	}
	s.publish()
	return li, nil
}

// snapshot copies the catalog item's live aisle and section onto li.
// References to rows deleted in the meantime leave the field empty.
func snapshot(ctx context.Context, q querier, li *model.ListItem, it model.Item) error {
	clearSnapshot(li)
	if it.AisleID != nil {
		a, err := getAisle(ctx, q, *it.AisleID)
		switch {
		case IsNotFound(err):
		case err != nil:
			return err
		default:
			li.AisleID, li.AisleNameSnap, li.AisleSortSnap = &a.ID, &a.Name, &a.SortOrder
		}
	}
	if it.SectionID != nil {
		sec, err := getSection(ctx, q, *it.SectionID)
		switch {
		case IsNotFound(err):
		case err != nil:
			return err
		default:
			li.SectionID, li.SectionNameSnap, li.SectionSortSnap = &sec.ID, &sec.Name, &sec.SortOrder
		}
	}
	return nil
}

func clearSnapshot(li *model.ListItem) {
	li.AisleID, li.AisleNameSnap, li.AisleSortSnap = nil, nil, nil
	li.SectionID, li.SectionNameSnap, li.SectionSortSnap = nil, nil, nil
}

// ListListItems returns a list's live entries, oldest first.
func (s *Store) ListListItems(ctx context.Context, listID string) ([]model.ListItem, error) {
	rows, err := s.reader().QueryContext(ctx, `
		SELECT `+listItemColumns+` FROM shopping_list_item
		WHERE list_id = ? AND deleted_at IS NULL
		ORDER BY created_at ASC, id ASC
	`, listID)
	if err != nil {
		return nil, fmt.Errorf("list list items: %w", err)
	}
	return scanAll(rows, scanListItem)
}

// GetListItem returns a live list entry.
func (s *Store) GetListItem(ctx context.Context, id string) (model.ListItem, error) {
	return getListItem(ctx, s.reader(), id)
}

func getListItem(ctx context.Context, q querier, id string) (model.ListItem, error) {
	li, err := scanListItem(q.QueryRowContext(ctx,
		`SELECT `+listItemColumns+` FROM shopping_list_item WHERE id = ? AND deleted_at IS NULL`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ListItem{}, NotFound("list_item", id)
	}
	if err != nil {
		return model.ListItem{}, fmt.Errorf("get list item: %w", err)
	}
	return li, nil
}

// SetListItemChecked checks or unchecks an entry. The snapshot is left as is.
// Setting the state an entry already has writes nothing and does not publish.
func (s *Store) SetListItemChecked(ctx context.Context, id string, checked bool) (model.ListItem, error) {
	var (
		li      model.ListItem
		changed bool
	)
	err := s.withTx(ctx, func(q querier) error {
		var err error
		if li, err = getListItem(ctx, q, id); err != nil {
			return err
		}
		if li.IsChecked == checked {
			return nil
		}
		changed = true
		now := s.now()
		li.IsChecked, li.UpdatedAt = checked, now
		li.CheckedAt = nil
		if checked {
			li.CheckedAt = &now
		}
		_, err = q.ExecContext(ctx,
			`UPDATE shopping_list_item SET is_checked = ?, checked_at = ?, updated_at = ? WHERE id = ?`,
			li.IsChecked, timeArg(li.CheckedAt), formatTime(now), li.ID)
		return err
	})
	if err != nil {
		return model.ListItem{}, err
	}
	if changed {
		s.publish()
	}
	return li, nil
}

// DeleteListItem soft-deletes a list entry.
func (s *Store) DeleteListItem(ctx context.Context, id string) error {
	err := s.withTx(ctx, func(q querier) error {
		if _, err := getListItem(ctx, q, id); err != nil {
			return err
		}
		now := formatTime(s.now())
		_, err := q.ExecContext(ctx,
			`UPDATE shopping_list_item SET deleted_at = ?, updated_at = ? WHERE id = ?`, now, now, id)
		return err
	})
	if err != nil {
		return err
	}
	s.publish()
	return nil
}

// ClearCheckedListItems soft-deletes a list's checked entries and returns how
// many were removed.
func (s *Store) ClearCheckedListItems(ctx context.Context, listID string) (int, error) {
	var n int64
	err := s.withTx(ctx, func(q querier) error {
		if _, err := getList(ctx, q, listID); err != nil {
			return err
		}
		now := formatTime(s.now())
		res, err := q.ExecContext(ctx, `
			UPDATE shopping_list_item SET deleted_at = ?, updated_at = ?
			WHERE list_id = ? AND is_checked = 1 AND deleted_at IS NULL
		`, now, now, listID)
		if err != nil {
			return fmt.Errorf("clear checked: %w", err)
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.publish()
	}
	return int(n), nil
}
