package provision

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"itd/internal/config"
)

// validName matches the database names we are willing to create or drop.
var validName = regexp.MustCompile(`^[A-Za-z0-9_]{1,64}$`)

// DSN returns the MySQL DSN for database, built from DB_HOST, DB_PORT,
// DB_USERNAME and DB_PASSWORD. An empty database connects to the server only.
func DSN(database string) string {
	cfg := mysql.NewConfig()
	cfg.User = envOr("DB_USERNAME", "root")
	cfg.Passwd = os.Getenv("DB_PASSWORD")
	cfg.Net = "tcp"
	cfg.Addr = envOr("DB_HOST", "127.0.0.1") + ":" + envOr("DB_PORT", "3306")
	cfg.DBName = database
	return cfg.FormatDSN()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DatabaseManager manages per-worker test databases
type DatabaseManager struct {
	config *config.Config
	log    zerolog.Logger
	open   func(dsn string) (*sql.DB, error)
}

// NewDatabaseManager creates a new DatabaseManager
func NewDatabaseManager(cfg *config.Config, logger zerolog.Logger) *DatabaseManager {
	return &DatabaseManager{
		config: cfg,
		log:    logger,
		open: func(dsn string) (*sql.DB, error) {
			return sql.Open("mysql", dsn)
		},
	}
}

// DatabaseNames returns the database names for workers 1..workerCount
func (dm *DatabaseManager) DatabaseNames(workerCount int) ([]string, error) {
	names := make([]string, 0, workerCount)
	for i := 1; i <= workerCount; i++ {
		name := dm.config.GetDatabaseName(i)
		if !validName.MatchString(name) {
			return nil, fmt.Errorf("invalid database name: %s", name)
		}
		names = append(names, name)
	}
	return names, nil
}

// CheckAndCreateDatabases makes sure every worker has its database. With
// fresh set, existing databases are dropped and recreated. It returns the
// names of the databases that were created.
func (dm *DatabaseManager) CheckAndCreateDatabases(ctx context.Context, workerCount int, fresh bool) ([]string, error) {
	names, err := dm.DatabaseNames(workerCount)
	if err != nil {
		return nil, err
	}

	// Connect to MySQL server (without specifying database)
	db, err := dm.open(DSN(""))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database server: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database server: %w", err)
	}

	var created []string
	for _, name := range names {
		exists, err := dm.databaseExists(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("failed to check database %s: %w", name, err)
		}

		if exists && fresh {
			if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP DATABASE `%s`", name)); err != nil {
				return nil, fmt.Errorf("failed to drop database %s: %w", name, err)
			}
			dm.log.Debug().Str("database", name).Msg("dropped database")
			exists = false
		}

		if !exists {
			if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name)); err != nil {
				return nil, fmt.Errorf("failed to create database %s: %w", name, err)
			}
			created = append(created, name)
		}
	}

	dm.log.Info().Int("workers", workerCount).Int("created", len(created)).Bool("fresh", fresh).Msg("worker databases ready")
	return created, nil
}

func (dm *DatabaseManager) databaseExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	err := db.QueryRowContext(ctx, query, name).Scan(&exists)
	return exists, err
}
