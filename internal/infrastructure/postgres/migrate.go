package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fastygo/revenue-engine/assets"
	"github.com/fastygo/revenue-engine/internal/config"
)

// RunMigrations applies pending migrations when enabled. An empty MIGRATIONS_PATH
// uses the copy embedded in the binary.
func RunMigrations(cfg *config.Config, logger *zap.Logger) error {
	if cfg == nil || !cfg.Migrations.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sqlDB, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return err
	}

	var m *migrate.Migrate
	if cfg.Migrations.Path == "" {
		src, err := iofs.New(assets.Migrations, "migrations")
		if err != nil {
			return err
		}
		m, err = migrate.NewWithInstance("iofs", src, cfg.Database.Name, driver)
		if err != nil {
			return err
		}
	} else {
		sourceURL := fmt.Sprintf("file://%s", filepath.ToSlash(cfg.Migrations.Path))
		m, err = migrate.NewWithDatabaseInstance(sourceURL, cfg.Database.Name, driver)
		if err != nil {
			return err
		}
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	version, dirty, _ := m.Version()
	logger.Info("database migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
