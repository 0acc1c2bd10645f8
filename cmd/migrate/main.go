package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"vrz_bot/pkg/db"
)

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"
)

const createVersions = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// upSection returns the statements between the Up and Down markers. Files
// without markers are applied whole.
func upSection(content string) string {
	if i := strings.Index(content, upMarker); i >= 0 {
		content = content[i+len(upMarker):]
	}
	if i := strings.Index(content, downMarker); i >= 0 {
		content = content[:i]
	}
	return strings.TrimSpace(content)
}

// pending keeps the files whose base name is not in applied, in name order.
func pending(files []string, applied map[string]struct{}) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if _, ok := applied[filepath.Base(f)]; !ok {
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}

func appliedVersions(ctx context.Context, conn db.Transaction) (map[string]struct{}, error) {
	if _, err := conn.Exec(ctx, createVersions); err != nil {
		return nil, errors.Wrap(err, "create schema_migrations")
	}
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, errors.Wrap(err, "select versions")
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "scan version")
		}
		applied[v] = struct{}{}
	}
	return applied, rows.Err()
}

func apply(ctx context.Context, tx *db.PgTxManager, file string) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrap(err, "read migration")
	}
	stmts := upSection(string(raw))
	version := filepath.Base(file)

	return tx.RunMaster(ctx, func(ctxTx context.Context, t pgx.Tx) error {
		if stmts != "" {
			if _, err := t.Exec(ctxTx, stmts); err != nil {
				return errors.Wrap(err, fmt.Sprintf("exec %s", version))
			}
		}
		_, err := t.Exec(ctxTx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
		return errors.Wrap(err, "record version")
	})
}

func main() {
	viper.SetConfigName(".migrate")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetDefault("dir", "migrations")
	_ = viper.BindEnv("dsn", "DATABASE_DSN")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}
	dsn := viper.GetString("dsn")
	if dsn == "" {
		panic("has no dsn in config or DATABASE_DSN")
	}

	files, err := filepath.Glob(filepath.Join(viper.GetString("dir"), "*.sql"))
	if err != nil {
		panic(fmt.Errorf("get file glob: %w", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, db.PoolConfig{DSN: dsn, MaxConns: 1})
	if err != nil {
		panic(fmt.Errorf("connect: %w", err))
	}
	tx := db.NewPgTxManager(pool)
	defer tx.Close()

	applied, err := appliedVersions(ctx, tx.Conn())
	if err != nil {
		panic(err)
	}
	for _, file := range pending(files, applied) {
		if err := apply(ctx, tx, file); err != nil {
			panic(fmt.Errorf("apply %s: %w", file, err))
		}
		fmt.Printf("%s applied\n", file)
	}
	fmt.Println("done")
}
