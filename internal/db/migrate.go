package db

import (
	"context"
	"fmt"
	"time"
)

type migration struct {
	version int
	name    string
	stmts   []string
}

// Migrate applies every migration newer than the recorded schema version.
// The list is append-only: released entries are never edited, new schema
// changes get a new version at the end.
func Migrate(store *Store) error {
	ctx := context.Background()
	conn := store.Conn()

	if _, err := conn.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	current, err := SchemaVersion(ctx, conn)
	if err != nil {
		return err
	}

	uow := NewSQLUnitOfWork(store)
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err := uow.WithinTx(ctx, func(ctx context.Context, tx DBTX) error {
			for i, stmt := range m.stmts {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("statement %d: %w", i, err)
				}
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
				m.version, m.name, time.Now().UTC().Format(time.RFC3339))
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

// SchemaVersion returns the highest applied migration version, 0 when none.
func SchemaVersion(ctx context.Context, conn DBTX) (int, error) {
	var v int
	if err := conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

var migrations = []migration{
	{
		version: 1,
		name:    "implementations and plan templates",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS implementations (
				id          TEXT PRIMARY KEY,
				name        TEXT NOT NULL,
				customer    TEXT NOT NULL DEFAULT '',
				responsible TEXT NOT NULL DEFAULT '',
				start_date  TEXT NOT NULL,
				created_at  TEXT NOT NULL,
				updated_at  TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS plan_templates (
				id            TEXT PRIMARY KEY,
				name          TEXT NOT NULL,
				description   TEXT NOT NULL DEFAULT '',
				duration_days INTEGER NOT NULL DEFAULT 0 CHECK(duration_days >= 0),
				status        TEXT NOT NULL DEFAULT 'em_andamento'
				              CHECK(status IN ('em_andamento','concluido')),
				processo_id   TEXT,
				created_by    TEXT NOT NULL DEFAULT '',
				created_at    TEXT NOT NULL,
				updated_at    TEXT NOT NULL,
				concluded_at  TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_plan_templates_status ON plan_templates(status)`,
		},
	},
	{
		version: 2,
		name:    "checklist nodes",
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS checklist_nodes (
				id                 TEXT PRIMARY KEY,
				parent_id          TEXT REFERENCES checklist_nodes(id) ON DELETE CASCADE,
				kind               TEXT NOT NULL
				                   CHECK(kind IN ('fase','grupo','tarefa','subtarefa',
				                                  'plano_fase','plano_grupo','plano_tarefa','plano_subtarefa')),
				order_key          INTEGER NOT NULL DEFAULT 0,
				title              TEXT NOT NULL,
				description        TEXT NOT NULL DEFAULT '',
				completed          INTEGER NOT NULL DEFAULT 0,
				completion_date    TEXT,
				tag                TEXT NOT NULL DEFAULT '',
				responsible        TEXT NOT NULL DEFAULT '',
				day_offset         INTEGER,
				business_days_only INTEGER NOT NULL DEFAULT 0,
				original_deadline  TEXT,
				deadline           TEXT,
				implantacao_id     TEXT REFERENCES implementations(id) ON DELETE CASCADE,
				plano_id           TEXT REFERENCES plan_templates(id) ON DELETE CASCADE,
				created_at         TEXT NOT NULL,
				updated_at         TEXT NOT NULL,
				CHECK ((implantacao_id IS NULL) <> (plano_id IS NULL)),
				CHECK ((completed = 0 AND completion_date IS NULL) OR (completed = 1 AND completion_date IS NOT NULL))
			)`,
			`CREATE INDEX IF NOT EXISTS idx_checklist_nodes_parent ON checklist_nodes(parent_id)`,
			`CREATE INDEX IF NOT EXISTS idx_checklist_nodes_impl ON checklist_nodes(implantacao_id)`,
			`CREATE INDEX IF NOT EXISTS idx_checklist_nodes_plan ON checklist_nodes(plano_id)`,
		},
	},
	{
		version: 3,
		name:    "history and comments",
		stmts: []string{
			// node_id is a logical reference with no foreign key so events
			// outlive the node they describe.
			`CREATE TABLE IF NOT EXISTS history_events (
				id             TEXT PRIMARY KEY,
				node_id        TEXT NOT NULL DEFAULT '',
				implantacao_id TEXT NOT NULL DEFAULT '',
				kind           TEXT NOT NULL
				               CHECK(kind IN ('status_changed','deadline_changed','responsible_changed',
				                              'comment_added','comment_deleted','node_deleted','plan_applied')),
				old_value      TEXT NOT NULL DEFAULT '',
				new_value      TEXT NOT NULL DEFAULT '',
				actor          TEXT NOT NULL DEFAULT '',
				occurred_at    TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_history_events_node ON history_events(node_id, occurred_at)`,
			`CREATE INDEX IF NOT EXISTS idx_history_events_impl ON history_events(implantacao_id, occurred_at)`,
			`CREATE TABLE IF NOT EXISTS node_comments (
				id         TEXT PRIMARY KEY,
				node_id    TEXT NOT NULL REFERENCES checklist_nodes(id) ON DELETE CASCADE,
				author     TEXT NOT NULL DEFAULT '',
				body       TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_node_comments_node ON node_comments(node_id)`,
		},
	},
}
