package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/web3-frozen/price-alert/internal/alert"
)

// SQLite keeps alerts in a single database file. All access goes through one
// connection, which serializes writers from the engine and the handlers.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(ctx context.Context, dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, storageErr("create parent directories", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, storageErr("open database", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, storageErr(fmt.Sprintf("exec %q", pragma), err)
		}
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Insert(ctx context.Context, a alert.Alert) (alert.Alert, error) {
	a.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO alerts (user_id, currency, target_price, created_at) VALUES (?, ?, ?, ?)`,
		a.UserID, string(a.Asset), a.TargetPrice, a.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return alert.Alert{}, storageErr("insert alert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return alert.Alert{}, storageErr("read insert id", err)
	}
	a.ID = id
	return a, nil
}

func (s *SQLite) ScanAll(ctx context.Context) ([]alert.Alert, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, currency, target_price, created_at FROM alerts ORDER BY id`)
	if err != nil {
		return nil, storageErr("scan alerts", err)
	}
	return collectSQLRows(rows)
}

func (s *SQLite) ListByUser(ctx context.Context, userID string) ([]alert.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, currency, target_price, created_at
		FROM alerts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, storageErr("list alerts", err)
	}
	return collectSQLRows(rows)
}

func (s *SQLite) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = ?`, id)
	if err != nil {
		return false, storageErr("delete alert", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("delete alert", err)
	}
	return n > 0, nil
}

func (s *SQLite) DeleteExact(ctx context.Context, userID string, asset alert.Asset, target float64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM alerts WHERE user_id = ? AND currency = ? AND target_price = ?`,
		userID, string(asset), target)
	if err != nil {
		return 0, storageErr("delete alerts", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("delete alerts", err)
	}
	return n, nil
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&count); err != nil {
		return 0, storageErr("count alerts", err)
	}
	return count, nil
}

func collectSQLRows(rows *sql.Rows) ([]alert.Alert, error) {
	defer rows.Close()

	var alerts []alert.Alert
	for rows.Next() {
		var (
			a         alert.Alert
			currency  string
			createdAt string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &currency, &a.TargetPrice, &createdAt); err != nil {
			return nil, storageErr("scan row", err)
		}
		a.Asset = alert.Asset(currency)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			a.CreatedAt = t
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate rows", err)
	}
	return alerts, nil
}
