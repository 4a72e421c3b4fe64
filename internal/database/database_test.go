package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/config"
	"go.uber.org/zap"
)

func TestDialector_UnsupportedDriver(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseCfg{Driver: "oracle"}}
	_, err := Dialector(cfg)
	require.Error(t, err)
}

func TestConnectAndMigrate_SQLite(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseCfg{Driver: "sqlite", DSN: "file::memory:"},
		Log:      config.LogCfg{Level: "info"},
	}

	db, err := Connect(cfg, zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db, zap.NewNop()))
	require.True(t, db.Migrator().HasTable("tasks"))
	require.True(t, db.Migrator().HasIndex("tasks", "idx_tasks_project_parent"))

	// Running twice must be a no-op.
	require.NoError(t, Migrate(db, zap.NewNop()))
}
