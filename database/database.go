// Package database opens the SQLite database behind the self-hosted
// notification store and applies its migrations.
//
// Connection string pragmas:
//   - foreign_keys(1): SQLite leaves FK checks off unless asked per connection
//   - journal_mode(WAL): readers do not block the writer
//   - busy_timeout(5000): a locked database is retried for 5s instead of
//     failing with SQLITE_BUSY at once
//
// Migrations are numbered files (001_notifications.sql, ...) applied in
// order. Each applied version is recorded in schema_migrations, so a restart
// only runs the files it has not seen.
package database

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure-Go driver, registers "sqlite"
)

// MemoryPath opens a private in-memory database (tests, ephemeral stores).
const MemoryPath = ":memory:"

// DB wraps the sqlx connection pool.
type DB struct {
	Conn *sqlx.DB
	log  *zap.Logger
}

// New opens dbPath and applies every pending migration in migrationsFS.
func New(ctx context.Context, dbPath string, migrationsFS fs.FS, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sqlx.ConnectContext(ctx, "sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if dbPath == MemoryPath {
		conn.SetMaxOpenConns(1)
	}

	db := &DB{Conn: conn, log: log.Named("database")}

	if err := db.migrate(ctx, migrationsFS); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db.log.Info("connected and migrations applied", zap.String("path", dbPath))
	return db, nil
}

// Close closes the pool.
func (db *DB) Close() error {
	return db.Conn.Close()
}

// migrate runs the *.sql files of migrationsFS in name order, skipping the
// ones recorded in schema_migrations.
func (db *DB) migrate(ctx context.Context, migrationsFS fs.FS) error {
	if _, err := db.Conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	var done []string
	if err := db.Conn.SelectContext(ctx, &done, "SELECT filename FROM schema_migrations"); err != nil {
		return fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	applied := make(map[string]bool, len(done))
	for _, name := range done {
		applied[name] = true
	}

	for _, file := range files {
		if applied[file] {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		err = WithTx(ctx, db.Conn, func(tx *sqlx.Tx) error {
			for i, stmt := range splitStatements(string(content)) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("statement %d: %w", i+1, err)
				}
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", file)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}

		db.log.Info("migration applied", zap.String("file", file))
	}

	return nil
}

// splitStatements splits a SQL script on semicolons outside single-quoted
// literals.
func splitStatements(script string) []string {
	var statements []string
	var current strings.Builder
	inString := false

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			statements = append(statements, s)
		}
		current.Reset()
	}

	for i := 0; i < len(script); i++ {
		ch := script[i]
		switch {
		case ch == '\'' && inString && i+1 < len(script) && script[i+1] == '\'':
			current.WriteString("''")
			i++
			continue
		case ch == '\'':
			inString = !inString
		case ch == ';' && !inString:
			flush()
			continue
		}
		current.WriteByte(ch)
	}
	flush()

	return statements
}
