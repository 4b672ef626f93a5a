package db

import (
	"fmt"

	types "github.com/yungbote/gtd-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Identity + sessions
		&types.User{},
		&types.Session{},

		// GTD
		&types.Context{},
		&types.Project{},
		&types.Task{},

		// Admin
		&types.FeatureFlag{},
		&types.WaitlistEntry{},
	)
}

// EnsureIndexes adds the indexes gorm tags cannot express. Both Postgres and SQLite
// accept partial and expression indexes in this form.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			// At most one INBOX / PROJECTS / WAITING_FOR context per owner.
			name: "idx_context_owner_system_role",
			sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_context_owner_system_role
				ON context (owner_id, role)
				WHERE role <> 'NONE';`,
		},
		{
			name: "idx_context_owner_name",
			sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_context_owner_name
				ON context (owner_id, lower(name));`,
		},
		{
			name: "idx_task_context_order",
			sql:  `CREATE INDEX IF NOT EXISTS idx_task_context_order ON task (context_id, sort_order);`,
		},
		{
			name: "idx_project_owner_order",
			sql:  `CREATE INDEX IF NOT EXISTS idx_project_owner_order ON project (owner_id, sort_order);`,
		},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return ensureTaskContextFK(db)
}

// ensureTaskContextFK keeps every task pointing at an existing context.
// SQLite cannot add a constraint to an existing table, so triggers enforce it there.
func ensureTaskContextFK(db *gorm.DB) error {
	var stmts []string
	switch db.Dialector.Name() {
	case "postgres":
		stmts = []string{`DO $$
			BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_task_context') THEN
					ALTER TABLE task ADD CONSTRAINT fk_task_context
						FOREIGN KEY (context_id) REFERENCES context (id) ON DELETE RESTRICT;
				END IF;
			END $$;`}
	case "sqlite":
		stmts = []string{
			`CREATE TRIGGER IF NOT EXISTS trg_task_context_insert
				BEFORE INSERT ON task
				WHEN NOT EXISTS (SELECT 1 FROM context WHERE id = NEW.context_id)
				BEGIN SELECT RAISE(ABORT, 'FOREIGN KEY constraint failed'); END;`,
			`CREATE TRIGGER IF NOT EXISTS trg_task_context_update
				BEFORE UPDATE OF context_id ON task
				WHEN NOT EXISTS (SELECT 1 FROM context WHERE id = NEW.context_id)
				BEGIN SELECT RAISE(ABORT, 'FOREIGN KEY constraint failed'); END;`,
			`CREATE TRIGGER IF NOT EXISTS trg_context_delete_restrict
				BEFORE DELETE ON context
				WHEN EXISTS (SELECT 1 FROM task WHERE context_id = OLD.id)
				BEGIN SELECT RAISE(ABORT, 'FOREIGN KEY constraint failed'); END;`,
		}
	default:
		return nil
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create fk_task_context: %w", err)
		}
	}
	return nil
}

func (d *Database) AutoMigrateAll() error {
	d.log.Info("Auto migrating tables...")
	if err := AutoMigrateAll(d.db); err != nil {
		d.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureIndexes(d.db); err != nil {
		d.log.Error("Index migration failed", "error", err)
		return err
	}
	return nil
}
