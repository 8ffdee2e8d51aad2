package store

import (
	"context"
	"fmt"
	"slices"
)

// Reset deletes every row of every data table not named in keep, then
// recreates the default store, all in one transaction, and publishes once.
//
// Foreign keys cascade: keeping a child table while clearing its parent (for
// example keeping shopping_list but not store) still loses the child rows.
func (s *Store) Reset(ctx context.Context, keep ...string) error {
	for _, k := range keep {
		if !slices.Contains(DataTables, k) {
			return ConstraintViolation("reset", fmt.Sprintf("unknown table %q", k), nil)
		}
	}

	cleared := make([]string, 0, len(DataTables))
	err := s.withTx(ctx, func(q querier) error {
		for i := len(DataTables) - 1; i >= 0; i-- {
			table := DataTables[i]
			if slices.Contains(keep, table) {
				continue
			}
			// table comes from DataTables, never from input.
			if _, err := q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
			cleared = append(cleared, table)
		}
		_, _, err := s.ensureDefaultStore(ctx, q)
		return err
	})
	if err != nil {
		return err
	}
	s.logger.Info("database reset", "cleared", cleared, "kept", keep)
	s.publish()
	return nil
}
