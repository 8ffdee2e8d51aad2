package store

// Schema versions:
// 1 - Base schema: layout, catalog, lists, settings
// 2 - shopping_list_item.unit
// 3 - Read indexes for parent lookups
const currentSchemaVersion = 3

// DataTables lists the entity tables in dependency order, children last.
// Reset clears them in reverse.
var DataTables = []string{
	"app_setting",
	"store",
	"store_aisle",
	"store_section",
	"store_item",
	"shopping_list",
	"shopping_list_item",
}

// Migrations is the ordered schema history applied by Open.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "base schema",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS store (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				deleted_at TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS store_aisle (
				id TEXT PRIMARY KEY,
				store_id TEXT NOT NULL REFERENCES store(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				sort_order INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				deleted_at TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS store_section (
				id TEXT PRIMARY KEY,
				store_id TEXT NOT NULL REFERENCES store(id) ON DELETE CASCADE,
				aisle_id TEXT NOT NULL REFERENCES store_aisle(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				sort_order INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				deleted_at TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS store_item (
				id TEXT PRIMARY KEY,
				store_id TEXT NOT NULL REFERENCES store(id) ON DELETE CASCADE,
				name TEXT NOT NULL,
				name_norm TEXT NOT NULL,
				aisle_id TEXT REFERENCES store_aisle(id) ON DELETE SET NULL,
				section_id TEXT REFERENCES store_section(id) ON DELETE SET NULL,
				usage_count INTEGER NOT NULL DEFAULT 0,
				last_used_at TEXT,
				is_hidden INTEGER NOT NULL DEFAULT 0,
				is_favorite INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				deleted_at TEXT
			)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS ux_store_item_name_norm
				ON store_item(store_id, name_norm) WHERE deleted_at IS NULL`,
			`CREATE TABLE IF NOT EXISTS shopping_list (
				id TEXT PRIMARY KEY,
				store_id TEXT NOT NULL REFERENCES store(id) ON DELETE CASCADE,
				title TEXT NOT NULL DEFAULT '',
				completed_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				deleted_at TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS shopping_list_item (
				id TEXT PRIMARY KEY,
				list_id TEXT NOT NULL REFERENCES shopping_list(id) ON DELETE CASCADE,
				store_id TEXT NOT NULL REFERENCES store(id) ON DELETE CASCADE,
				store_item_id TEXT REFERENCES store_item(id) ON DELETE SET NULL,
				name TEXT NOT NULL,
				name_norm TEXT NOT NULL,
				qty REAL NOT NULL DEFAULT 1 CHECK (qty >= 0),
				notes TEXT NOT NULL DEFAULT '',
				is_checked INTEGER NOT NULL DEFAULT 0,
				checked_at TEXT,
				aisle_id TEXT,
				aisle_name_snap TEXT,
				aisle_sort_snap INTEGER,
				section_id TEXT,
				section_name_snap TEXT,
				section_sort_snap INTEGER,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				deleted_at TEXT
			)`,
			`CREATE TABLE IF NOT EXISTS app_setting (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
		},
	},
	{
		Version: 2,
		Name:    "list item unit",
		Statements: []string{
			`ALTER TABLE shopping_list_item ADD COLUMN unit TEXT NOT NULL DEFAULT ''`,
		},
	},
	{
		Version: 3,
		Name:    "parent lookup indexes",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS ix_store_aisle_store ON store_aisle(store_id, sort_order)`,
			`CREATE INDEX IF NOT EXISTS ix_store_section_aisle ON store_section(aisle_id, sort_order)`,
			`CREATE INDEX IF NOT EXISTS ix_store_item_store ON store_item(store_id)`,
			`CREATE INDEX IF NOT EXISTS ix_shopping_list_store ON shopping_list(store_id)`,
			`CREATE INDEX IF NOT EXISTS ix_shopping_list_item_list ON shopping_list_item(list_id)`,
		},
	},
}
