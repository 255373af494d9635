package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/unklstewy/flightmap/pkg/config"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed schema_postgres.sql schema_sqlite.sql
var schemaSQL embed.FS

// DB wraps a database connection with helper methods.
type DB struct {
	*sql.DB
	config config.DatabaseConfig
}

// Connect opens and pings a PostgreSQL or SQLite database.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	driver, dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if driver == DriverSQLite {
		// One connection serializes writers and keeps :memory: databases alive.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		DB:     sqlDB,
		config: cfg,
	}, nil
}

func dataSource(cfg config.DatabaseConfig) (driver, dsn string, err error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		return DriverPostgres, fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host,
			cfg.Port,
			cfg.Username,
			cfg.Password,
			cfg.Database,
			cfg.SSLMode,
		), nil
	case DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		return DriverSQLite, path, nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Driver returns the driver name in use.
func (db *DB) Driver() string {
	if db.config.Driver == "" {
		return DriverPostgres
	}
	return db.config.Driver
}

// InitSchema creates the schema for the connected driver. It is idempotent.
func (db *DB) InitSchema(ctx context.Context) error {
	name := "schema_" + db.Driver() + ".sql"
	schemaBytes, err := schemaSQL.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schemaBytes)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (db *DB) Rebind(query string) string {
	if db.Driver() != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
