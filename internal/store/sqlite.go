package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type SQLiteBackend struct {
	conn *sql.DB
}

func OpenSQLite(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer at a time
	conn.SetMaxOpenConns(1)

	b := &SQLiteBackend{conn: conn}
	if err := b.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	_, err := b.conn.Exec(`CREATE TABLE IF NOT EXISTS records (
		key BLOB PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func (b *SQLiteBackend) Driver() string {
	return "sqlite"
}

func (b *SQLiteBackend) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte
	err := b.conn.QueryRowContext(ctx, `SELECT value FROM records WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *SQLiteBackend) Put(ctx context.Context, key, value []byte) error {
	_, err := b.conn.ExecContext(ctx,
		`INSERT INTO records (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	return err
}

func (b *SQLiteBackend) Delete(ctx context.Context, key []byte) error {
	_, err := b.conn.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key)
	return err
}

func (b *SQLiteBackend) Keys(ctx context.Context, prefix []byte) ([][]byte, error) {
	query := `SELECT key FROM records WHERE key >= ? ORDER BY key`
	args := []any{prefix}
	if end := prefixEnd(prefix); end != nil {
		query = `SELECT key FROM records WHERE key >= ? AND key < ? ORDER BY key`
		args = append(args, end)
	}
	rows, err := b.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var key []byte
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		out = append(out, key)
	}
	return out, rows.Err()
}

func (b *SQLiteBackend) Close() error {
	return b.conn.Close()
}
