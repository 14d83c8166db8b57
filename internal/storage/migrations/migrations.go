// Package migrations applies the embedded SQL schema to PostgreSQL and ClickHouse.
// Files are applied in lexical order and must be idempotent.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	//go:embed postgres/*.sql
	PostgresFS embed.FS

	//go:embed clickhouse/*.sql
	ClickhouseFS embed.FS
)

// PostgresExecer is satisfied by *pgxpool.Pool and pgx.Tx.
type PostgresExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ClickhouseExecer is satisfied by a clickhouse driver.Conn.
type ClickhouseExecer interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// ApplyPostgres applies every embedded PostgreSQL migration.
// Postgres accepts multi-statement scripts, so each file is sent whole.
func ApplyPostgres(ctx context.Context, db PostgresExecer) error {
	return apply(PostgresFS, "postgres", func(file, script string) error {
		if _, err := db.Exec(ctx, script); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		return nil
	})
}

// ApplyClickhouse applies every embedded ClickHouse migration, one statement at a time.
func ApplyClickhouse(ctx context.Context, db ClickhouseExecer) error {
	return apply(ClickhouseFS, "clickhouse", func(file, script string) error {
		if err := validateNoSemicolonInStrings(script); err != nil {
			return fmt.Errorf("validate migration %s: %w", file, err)
		}
		for _, stmt := range splitStatements(script) {
			if err := db.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", file, err)
			}
		}
		return nil
	})
}

func apply(fsys fs.FS, dir string, run func(file, script string) error) error {
	files, err := sqlFiles(fsys, dir)
	if err != nil {
		return err
	}
	for _, file := range files {
		data, err := fs.ReadFile(fsys, dir+"/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if err := run(file, string(data)); err != nil {
			return err
		}
	}
	return nil
}

// sqlFiles lists the .sql files of dir in lexical order.
func sqlFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// splitStatements drops blank and -- comment lines and splits on semicolons.
// It does not understand quoting: migrations must not put a semicolon inside
// a string literal, which validateNoSemicolonInStrings enforces.
func splitStatements(script string) []string {
	var kept []string
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		kept = append(kept, line)
	}

	var stmts []string
	for _, part := range strings.Split(strings.Join(kept, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// validateNoSemicolonInStrings rejects scripts with a semicolon inside a
// single-quoted literal. Doubled quotes are an escaped quote.
func validateNoSemicolonInStrings(script string) error {
	inString := false
	for i := 0; i < len(script); i++ {
		switch script[i] {
		case '\'':
			if inString && i+1 < len(script) && script[i+1] == '\'' {
				i++
				continue
			}
			inString = !inString
		case ';':
			if inString {
				return fmt.Errorf("semicolon inside string literal at offset %d", i)
			}
		}
	}
	return nil
}
