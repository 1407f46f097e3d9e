package postgres

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqliteScheme = "sqlite://"

// IsSQLiteURL reports whether databaseURL selects the embedded SQLite backend.
func IsSQLiteURL(databaseURL string) bool {
	return strings.HasPrefix(databaseURL, sqliteScheme)
}

// OpenSQLite opens a single-connection SQLite database for local runs and tests,
// creating the users schema from the gorm models instead of the Postgres migrations.
func OpenSQLite(ctx context.Context, databaseURL string) (*gorm.DB, error) {
	dsn := strings.TrimPrefix(databaseURL, sqliteScheme)
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	// :memory: databases are per connection.
	sqlDB.SetMaxOpenConns(1)

	if err := db.WithContext(ctx).AutoMigrate(&userModel{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	logDB(ctx, "sqlite database ready", "connect", "success", "dsn", dsn)
	return db, nil
}
