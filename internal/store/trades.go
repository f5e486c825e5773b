package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"trading-bot-backend/internal/types"
)

const tradeColumns = `id, symbol, side, qty, price, status, reason, pnl, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(r rowScanner) (types.Trade, error) {
	var (
		t         types.Trade
		side      string
		status    string
		price     sql.NullFloat64
		reason    sql.NullString
		pnl       sql.NullFloat64
		createdAt int64
		updatedAt int64
	)
	if err := r.Scan(&t.ID, &t.Symbol, &side, &t.Qty, &price, &status, &reason, &pnl, &createdAt, &updatedAt); err != nil {
		return types.Trade{}, err
	}
	t.Side = types.Side(side)
	t.Status = types.TradeStatus(status)
	if price.Valid {
		t.Price = &price.Float64
	}
	if reason.Valid {
		t.Reason = &reason.String
	}
	if pnl.Valid {
		t.PnL = &pnl.Float64
	}
	t.CreatedAt = fromMicros(createdAt)
	t.UpdatedAt = fromMicros(updatedAt)
	return t, nil
}

// CreateTrade validates and inserts t, filling in ID and timestamps.
func (s *Session) CreateTrade(ctx context.Context, t *types.Trade) error {
	q, err := s.q()
	if err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}
	now := s.now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = t.CreatedAt

	res, err := q.ExecContext(ctx, `
		INSERT INTO trades (symbol, side, qty, price, status, reason, pnl, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Symbol, string(t.Side), t.Qty, t.Price, string(t.Status), t.Reason, t.PnL,
		toMicros(t.CreatedAt), toMicros(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert trade id: %w", err)
	}
	t.ID = id
	t.CreatedAt = fromMicros(toMicros(t.CreatedAt))
	t.UpdatedAt = t.CreatedAt
	return nil
}

// ListTrades returns every trade, newest first.
func (s *Session) ListTrades(ctx context.Context) ([]types.Trade, error) {
	return s.queryTrades(ctx, `SELECT `+tradeColumns+` FROM trades ORDER BY created_at DESC, id DESC`)
}

// TradesBetween returns trades created in [from, to), oldest first.
func (s *Session) TradesBetween(ctx context.Context, from, to time.Time) ([]types.Trade, error) {
	return s.queryTrades(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE created_at >= ? AND created_at < ? ORDER BY created_at, id`,
		toMicros(from), toMicros(to))
}

func (s *Session) queryTrades(ctx context.Context, query string, args ...any) ([]types.Trade, error) {
	q, err := s.q()
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	trades := make([]types.Trade, 0)
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// DailyPnL sums the recorded pnl of trades created in [from, to).
// Trades without pnl contribute zero.
func (s *Session) DailyPnL(ctx context.Context, from, to time.Time) (float64, error) {
	q, err := s.q()
	if err != nil {
		return 0, err
	}
	rows, err := q.QueryContext(ctx,
		`SELECT pnl FROM trades WHERE created_at >= ? AND created_at < ? AND pnl IS NOT NULL`,
		toMicros(from), toMicros(to))
	if err != nil {
		return 0, fmt.Errorf("query daily pnl: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return 0, fmt.Errorf("scan pnl: %w", err)
		}
		total = total.Add(decimal.NewFromFloat(v))
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return total.InexactFloat64(), nil
}

// AttachPnL sets the realized pnl of an existing trade. Only pnl and
// updated_at change.
func (s *Session) AttachPnL(ctx context.Context, id int64, pnl float64) (*types.Trade, error) {
	q, err := s.q()
	if err != nil {
		return nil, err
	}
	res, err := q.ExecContext(ctx, `UPDATE trades SET pnl = ?, updated_at = ? WHERE id = ?`,
		pnl, toMicros(s.now()), id)
	if err != nil {
		return nil, fmt.Errorf("update trade pnl: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("trade %d: %w", id, ErrNotFound)
	}

	t, err := scanTrade(q.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trade %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reload trade: %w", err)
	}
	return &t, nil
}
