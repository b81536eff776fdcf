// Package database opens the gorm connection backing the visit and option stores.
package database

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/axellelanca/trackit/internal/config"
	customerrors "github.com/axellelanca/trackit/internal/errors"
	"github.com/axellelanca/trackit/internal/models"
)

// sqlitePragmas let concurrent writers wait on the file lock instead of failing with SQLITE_BUSY.
const sqlitePragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Open connects to the configured database. verbose turns on gorm SQL logging.
func Open(cfg config.DatabaseConfig, verbose bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(SQLiteDSN(cfg.Name))
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", customerrors.ErrUnsupportedDriver, cfg.Driver)
	}

	db, err := gorm.Open(dialector, GormConfig(verbose))
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	return db, nil
}

// GormConfig is the gorm configuration shared by every connection, including test ones.
// Single statements run without gorm's implicit transaction; DeleteAll opens its own.
func GormConfig(verbose bool) *gorm.Config {
	mode := gormlogger.Silent
	if verbose {
		mode = gormlogger.Info
	}
	return &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(mode),
	}
}

// SQLiteDSN appends the connection pragmas to a sqlite file name.
func SQLiteDSN(name string) string {
	sep := "?"
	if strings.Contains(name, "?") {
		sep = "&"
	}
	return name + sep + sqlitePragmas
}

// Migrate creates or updates the visit and option tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Visit{}, &models.Option{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get underlying sql database: %w", err)
	}
	return sqlDB.Close()
}
