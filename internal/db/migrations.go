package db

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// runMigrations runs all database migrations using gormigrate. Every
// statement is safe to re-run, so concurrent first opens from multiple
// processes converge on the same schema. The gormigrate migrations table is
// the ledger's stored schema-version stamp.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		// Migration 001: session and pattern tables (no foreign keys).
		{
			ID: "001_sessions_patterns",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.AutoMigrate(&Session{}); err != nil {
					return err
				}
				return tx.AutoMigrate(&Pattern{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("sessions", "patterns")
			},
		},

		// Migration 002: capture and knowledge tables. Raw DDL because
		// SQLite only accepts REFERENCES clauses at CREATE TABLE time.
		{
			ID: "002_ledger_tables",
			Migrate: func(tx *gorm.DB) error {
				sqls := []string{
					`CREATE TABLE IF NOT EXISTS responses (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						session_id TEXT NOT NULL REFERENCES sessions(id),
						created_at TEXT NOT NULL,
						created_at_epoch INTEGER NOT NULL,
						response_text TEXT NOT NULL,
						response_type TEXT NOT NULL DEFAULT 'raw'
					)`,
					`CREATE TABLE IF NOT EXISTS code_changes (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						session_id TEXT NOT NULL REFERENCES sessions(id),
						created_at TEXT NOT NULL,
						created_at_epoch INTEGER NOT NULL,
						file_path TEXT NOT NULL,
						old_code TEXT,
						new_code TEXT,
						diff_summary TEXT
					)`,
					`CREATE TABLE IF NOT EXISTS commands (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						session_id TEXT NOT NULL REFERENCES sessions(id),
						created_at TEXT NOT NULL,
						created_at_epoch INTEGER NOT NULL,
						command_line TEXT NOT NULL,
						working_dir TEXT
					)`,
					`CREATE TABLE IF NOT EXISTS concepts (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						session_id TEXT REFERENCES sessions(id),
						created_at TEXT NOT NULL,
						created_at_epoch INTEGER NOT NULL,
						name TEXT NOT NULL,
						explanation TEXT NOT NULL,
						code_example TEXT NOT NULL DEFAULT '',
						tags TEXT NOT NULL DEFAULT '',
						source TEXT NOT NULL DEFAULT 'hook' CHECK (source IN ('hook', 'mcp')),
						reviewed_at TEXT,
						review_count INTEGER NOT NULL DEFAULT 0 CHECK (review_count >= 0)
					)`,
					`CREATE TABLE IF NOT EXISTS gotchas (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						concept_id INTEGER REFERENCES concepts(id),
						description TEXT NOT NULL,
						code_example TEXT NOT NULL DEFAULT '',
						severity TEXT NOT NULL DEFAULT 'warning' CHECK (severity IN ('danger', 'warning', 'info'))
					)`,
				}
				for _, s := range sqls {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(
					"gotchas", "concepts", "commands", "code_changes", "responses",
				)
			},
		},

		// Migration 003: FTS5 virtual table for concepts with sync triggers.
		// The triggers fire inside the statement's transaction, so the index
		// is a materialized view of the concepts table, never a cache:
		// insert adds, update removes old and adds new, delete removes.
		{
			ID: "003_concepts_fts",
			Migrate: func(tx *gorm.DB) error {
				sqls := []string{
					`CREATE VIRTUAL TABLE IF NOT EXISTS concepts_fts USING fts5(
						name, explanation, tags,
						content='concepts',
						content_rowid='id'
					)`,
					`CREATE TRIGGER IF NOT EXISTS concepts_ai AFTER INSERT ON concepts BEGIN
						INSERT INTO concepts_fts(rowid, name, explanation, tags)
						VALUES (new.id, new.name, new.explanation, new.tags);
					END`,
					`CREATE TRIGGER IF NOT EXISTS concepts_ad AFTER DELETE ON concepts BEGIN
						INSERT INTO concepts_fts(concepts_fts, rowid, name, explanation, tags)
						VALUES ('delete', old.id, old.name, old.explanation, old.tags);
					END`,
					`CREATE TRIGGER IF NOT EXISTS concepts_au AFTER UPDATE ON concepts BEGIN
						INSERT INTO concepts_fts(concepts_fts, rowid, name, explanation, tags)
						VALUES ('delete', old.id, old.name, old.explanation, old.tags);
						INSERT INTO concepts_fts(rowid, name, explanation, tags)
						VALUES (new.id, new.name, new.explanation, new.tags);
					END`,
				}
				for _, s := range sqls {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				sqls := []string{
					"DROP TRIGGER IF EXISTS concepts_au",
					"DROP TRIGGER IF EXISTS concepts_ad",
					"DROP TRIGGER IF EXISTS concepts_ai",
					"DROP TABLE IF EXISTS concepts_fts",
				}
				for _, s := range sqls {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
		},

		// Migration 004: secondary indexes on the raw-DDL tables.
		{
			ID: "004_ledger_indexes",
			Migrate: func(tx *gorm.DB) error {
				sqls := []string{
					`CREATE INDEX IF NOT EXISTS idx_responses_session ON responses(session_id)`,
					`CREATE INDEX IF NOT EXISTS idx_code_changes_session ON code_changes(session_id)`,
					`CREATE INDEX IF NOT EXISTS idx_commands_session ON commands(session_id)`,
					`CREATE INDEX IF NOT EXISTS idx_concepts_session ON concepts(session_id)`,
					`CREATE INDEX IF NOT EXISTS idx_concepts_source ON concepts(source)`,
					`CREATE INDEX IF NOT EXISTS idx_concepts_reviewed ON concepts(reviewed_at)`,
					`CREATE INDEX IF NOT EXISTS idx_concepts_created ON concepts(created_at_epoch DESC)`,
					`CREATE INDEX IF NOT EXISTS idx_gotchas_concept ON gotchas(concept_id)`,
				}
				for _, s := range sqls {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				sqls := []string{
					"DROP INDEX IF EXISTS idx_gotchas_concept",
					"DROP INDEX IF EXISTS idx_concepts_created",
					"DROP INDEX IF EXISTS idx_concepts_reviewed",
					"DROP INDEX IF EXISTS idx_concepts_source",
					"DROP INDEX IF EXISTS idx_concepts_session",
					"DROP INDEX IF EXISTS idx_commands_session",
					"DROP INDEX IF EXISTS idx_code_changes_session",
					"DROP INDEX IF EXISTS idx_responses_session",
				}
				for _, s := range sqls {
					if err := tx.Exec(s).Error; err != nil {
						return err
					}
				}
				return nil
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("run gormigrate migrations: %w", err)
	}
	return nil
}
