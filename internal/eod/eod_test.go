package eod

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-bot-backend/internal/store"
	"trading-bot-backend/internal/types"
)

func fp(v float64) *float64 { return &v }

func TestSummarizeDay(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	db, err := store.Open(ctx, filepath.Join(dir, "eod.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	day := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	reason := "placeholder-signal"
	seed := []types.Trade{
		{Symbol: "NIFTY", Side: types.SideBuy, Qty: 2, Price: fp(100), Status: types.StatusManual, PnL: fp(10.5), CreatedAt: day},
		{Symbol: "NIFTY", Side: types.SideSell, Qty: 1, Price: fp(110), Status: types.StatusManual, PnL: fp(-2.25), CreatedAt: day.Add(time.Hour)},
		{Symbol: "BANKNIFTY", Side: types.SideBuy, Qty: 1, Status: types.StatusPlaced, Reason: &reason, CreatedAt: day},
		{Symbol: "BANKNIFTY", Side: types.SideBuy, Qty: 5, Status: types.StatusRejected, Reason: &reason, CreatedAt: day},
		{Symbol: "INFY", Side: types.SideBuy, Qty: 1, Status: types.StatusManual, CreatedAt: day.AddDate(0, 0, 1)},
	}
	sess, err := db.Acquire(ctx)
	require.NoError(t, err)
	for i := range seed {
		require.NoError(t, sess.CreateTrade(ctx, &seed[i]))
	}
	require.NoError(t, sess.Close())

	s := NewSummarizer(db, dir, time.UTC)
	path, err := s.SummarizeDay(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "eod", "2025-03-03.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"symbol", "trades", "buy_qty", "sell_qty", "net_qty", "gross_buy_value", "gross_sell_value", "realized_pnl"},
		{"BANKNIFTY", "1", "1", "0", "1", "0.00", "0.00", "0.00"},
		{"NIFTY", "2", "2", "1", "1", "200.00", "110.00", "8.25"},
		{"TOTAL", "3", "", "", "", "200.00", "110.00", "8.25"},
	}, records)
}

func TestSummarizeDayWithoutTrades(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	db, err := store.Open(ctx, filepath.Join(dir, "eod.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	path, err := NewSummarizer(db, dir, nil).SummarizeDay(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestSummarizeDayClosedStore(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "eod.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = NewSummarizer(db, t.TempDir(), nil).SummarizeToday(ctx)
	assert.ErrorIs(t, err, store.ErrNotInitialized)
}
