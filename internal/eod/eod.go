package eod

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"trading-bot-backend/internal/interfaces"
	"trading-bot-backend/internal/types"
)

// aggRow is the per-symbol aggregate of one day's trades.
type aggRow struct {
	Symbol    string
	Trades    int
	BuyQty    int
	SellQty   int
	BuyValue  decimal.Decimal // priced trades only
	SellValue decimal.Decimal
	PnL       decimal.Decimal // sum of recorded pnl
}

// Summarizer writes a per-symbol CSV of a day's trades from the trade store.
type Summarizer struct {
	sessions interfaces.SessionProvider
	dir      string
	loc      *time.Location
	now      func() time.Time
}

var _ interfaces.EodSummarizer = (*Summarizer)(nil)

func NewSummarizer(sessions interfaces.SessionProvider, dir string, loc *time.Location) *Summarizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Summarizer{sessions: sessions, dir: dir, loc: loc, now: time.Now}
}

// CSVPath is where the summary for day is written.
func (s *Summarizer) CSVPath(day time.Time) string {
	return filepath.Join(s.dir, "eod", day.In(s.loc).Format("2006-01-02")+".csv")
}

func (s *Summarizer) SummarizeToday(ctx context.Context) (string, error) {
	return s.SummarizeDay(ctx, s.now())
}

// SummarizeDay returns "" with no error when the day has no trades.
func (s *Summarizer) SummarizeDay(ctx context.Context, day time.Time) (string, error) {
	d := day.In(s.loc)
	from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.loc)
	to := from.AddDate(0, 0, 1)

	sess, err := s.sessions.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer sess.Close()

	trades, err := sess.TradesBetween(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("load trades: %w", err)
	}
	rows := aggregate(trades)
	if len(rows) == 0 {
		return "", nil
	}

	outPath := s.CSVPath(from)
	if err := writeCSV(outPath, rows); err != nil {
		return "", err
	}
	return outPath, nil
}

// aggregate skips BLOCKED and REJECTED rows: nothing was executed for them.
func aggregate(trades []types.Trade) []*aggRow {
	aggs := map[string]*aggRow{}
	for _, t := range trades {
		if t.Status == types.StatusBlocked || t.Status == types.StatusRejected {
			continue
		}
		row := aggs[t.Symbol]
		if row == nil {
			row = &aggRow{Symbol: t.Symbol}
			aggs[t.Symbol] = row
		}
		row.Trades++

		var value decimal.Decimal
		if t.Price != nil {
			value = decimal.NewFromFloat(*t.Price).Mul(decimal.NewFromInt(int64(t.Qty)))
		}
		switch t.Side {
		case types.SideBuy:
			row.BuyQty += t.Qty
			row.BuyValue = row.BuyValue.Add(value)
		case types.SideSell:
			row.SellQty += t.Qty
			row.SellValue = row.SellValue.Add(value)
		}
		if t.PnL != nil {
			row.PnL = row.PnL.Add(decimal.NewFromFloat(*t.PnL))
		}
	}

	out := make([]*aggRow, 0, len(aggs))
	for _, r := range aggs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func writeCSV(path string, rows []*aggRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write([]string{"symbol", "trades", "buy_qty", "sell_qty", "net_qty", "gross_buy_value", "gross_sell_value", "realized_pnl"}); err != nil {
		return err
	}

	var totalBuy, totalSell, totalPnL decimal.Decimal
	totalTrades := 0
	for _, r := range rows {
		rec := []string{
			r.Symbol,
			strconv.Itoa(r.Trades),
			strconv.Itoa(r.BuyQty),
			strconv.Itoa(r.SellQty),
			strconv.Itoa(r.BuyQty - r.SellQty),
			r.BuyValue.StringFixed(2),
			r.SellValue.StringFixed(2),
			r.PnL.StringFixed(2),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
		totalTrades += r.Trades
		totalBuy = totalBuy.Add(r.BuyValue)
		totalSell = totalSell.Add(r.SellValue)
		totalPnL = totalPnL.Add(r.PnL)
	}
	if err := w.Write([]string{"TOTAL", strconv.Itoa(totalTrades), "", "", "", totalBuy.StringFixed(2), totalSell.StringFixed(2), totalPnL.StringFixed(2)}); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return out.Close()
}
