// Package store provides SQLite-backed storage for stores, layouts, catalogs
// and shopping lists.
//
// # Entities
//
// Six entity tables plus app_setting:
//   - store, store_aisle, store_section: the physical layout
//   - store_item: the per-store catalog
//   - shopping_list, shopping_list_item: lists and their entries
//
// # Rules
//
// Soft delete: rows are never removed by entity operations. Delete stamps
// deleted_at and default reads filter on deleted_at IS NULL. Only Reset
// removes rows.
//
// Dedup: (store_id, name_norm) is unique among live catalog items, enforced
// by a partial unique index. Violations surface as ConstraintViolation.
//
// Atomicity: reorders, cascading deletes, migrations and resets run in one
// transaction each. A failure part-way leaves no visible change.
//
// Notification: every successful mutation publishes on the change bus. Failed
// mutations do not publish.
//
// # Database Configuration
//
//   - WAL mode for file databases
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
//   - one open connection: a single writer, which also pins :memory: databases
package store
