package database

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type compositeIndex struct {
	table   string
	name    string
	columns []string
}

// Composite indexes backing the hot list queries; single-column indexes are
// declared on the models.
var compositeIndexes = []compositeIndex{
	{"tasks", "idx_tasks_project_parent", []string{"project_id", "parent_id"}},
	{"tasks", "idx_tasks_project_status", []string{"project_id", "status_id"}},
	{"task_history", "idx_task_history_task_created", []string{"task_id", "created_at"}},
	{"project_statuses", "idx_project_statuses_order", []string{"project_id", "position"}},
}

// AddIndexes creates the composite indexes that do not exist yet.
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	migrator := db.Migrator()
	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug("Index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, strings.Join(idx.columns, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("Created index", zap.String("index", idx.name), zap.String("table", idx.table))
	}

	return nil
}
