package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"

	"todo-app/backend/internal/config"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// Direction はマイグレーションの方向です。
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Migrate は埋め込みのSQLファイルを使ってスキーマを up / down します。
// 変更が無い場合はエラーにしません。
func Migrate(cfg config.DBConfig, dir Direction, logger logrus.FieldLogger) error {
	src, err := iofs.New(migrationsFS, "migrations/"+cfg.Driver)
	if err != nil {
		return fmt.Errorf("failed to load migrations for %s: %w", cfg.Driver, err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.MigrationURL())
	if err != nil {
		return fmt.Errorf("failed to initialise migrations: %w", err)
	}
	defer m.Close()

	switch dir {
	case Up:
		err = m.Up()
	case Down:
		err = m.Down()
	default:
		return fmt.Errorf("unknown migration direction %q", dir)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations %s: %w", dir, err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", verr)
	}
	logger.WithFields(logrus.Fields{
		"driver":    cfg.Driver,
		"direction": dir,
		"version":   version,
		"dirty":     dirty,
	}).Info("migrations applied")
	return nil
}
