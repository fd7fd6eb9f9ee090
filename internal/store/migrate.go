package store

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jmoiron/sqlx"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

type migration struct {
	Version string
	Name    string
	SQL     string
}

func (s *Store) loadMigrations() ([]migration, error) {
	dir := "migrations/sqlite"
	if s.dialect == dialect.Postgres {
		dir = "migrations/postgres"
	}

	entries, err := migrationFiles.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []migration
	for _, e := range entries {
		content, err := migrationFiles.ReadFile(path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		version := strings.SplitN(e.Name(), "_", 2)[0]
		out = append(out, migration{Version: version, Name: e.Name(), SQL: string(content)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// migrate applies every embedded migration not yet recorded in
// schema_migrations. Each file runs in its own transaction.
func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	migrations, err := s.loadMigrations()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	for _, m := range migrations {
		query, args := s.builder().
			Select("version").
			From(entsql.Table("schema_migrations")).
			Where(entsql.EQ("version", m.Version)).
			Query()
		var applied []string
		if err := s.db.SelectContext(ctx, &applied, query, args...); err != nil {
			return fmt.Errorf("check migration %s: %w", m.Name, err)
		}
		if len(applied) > 0 {
			continue
		}

		err := s.inTx(ctx, func(tx *sqlx.Tx) error {
			for _, stmt := range splitStatements(m.SQL) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("%s: %w", m.Name, err)
				}
			}
			query, args := s.builder().
				Insert("schema_migrations").
				Columns("version", "applied_at").
				Values(m.Version, NewTime(time.Now())).
				Query()
			_, err := tx.ExecContext(ctx, query, args...)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

func splitStatements(sql string) []string {
	var out []string
	for _, stmt := range strings.Split(sql, ";") {
		if strings.TrimSpace(stmt) != "" {
			out = append(out, stmt)
		}
	}
	return out
}
