package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/web3-frozen/price-alert/internal/alert"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, storageErr("create pool", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storageErr("ping database", err)
	}

	return &Postgres{pool: pool}, nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Postgres) Insert(ctx context.Context, a alert.Alert) (alert.Alert, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO alerts (user_id, currency, target_price)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		a.UserID, string(a.Asset), a.TargetPrice).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return alert.Alert{}, storageErr("insert alert", err)
	}
	return a, nil
}

func (s *Postgres) ScanAll(ctx context.Context) ([]alert.Alert, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, currency, target_price, created_at FROM alerts ORDER BY id`)
	if err != nil {
		return nil, storageErr("scan alerts", err)
	}
	return collectAlerts(rows)
}

func (s *Postgres) ListByUser(ctx context.Context, userID string) ([]alert.Alert, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, currency, target_price, created_at
		FROM alerts WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, storageErr("list alerts", err)
	}
	return collectAlerts(rows)
}

func (s *Postgres) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM alerts WHERE id = $1`, id)
	if err != nil {
		return false, storageErr("delete alert", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Postgres) DeleteExact(ctx context.Context, userID string, asset alert.Asset, target float64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM alerts WHERE user_id = $1 AND currency = $2 AND target_price = $3`,
		userID, string(asset), target)
	if err != nil {
		return 0, storageErr("delete alerts", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM alerts`).Scan(&count); err != nil {
		return 0, storageErr("count alerts", err)
	}
	return count, nil
}

func collectAlerts(rows pgx.Rows) ([]alert.Alert, error) {
	defer rows.Close()

	var alerts []alert.Alert
	for rows.Next() {
		var a alert.Alert
		var currency string
		if err := rows.Scan(&a.ID, &a.UserID, &currency, &a.TargetPrice, &a.CreatedAt); err != nil {
			return nil, storageErr("scan row", err)
		}
		a.Asset = alert.Asset(currency)
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate rows", err)
	}
	return alerts, nil
}
