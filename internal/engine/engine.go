package engine

import (
	"context"
	"fmt"
	"time"

	"trading-bot-backend/internal/interfaces"
	"trading-bot-backend/internal/logger"
	"trading-bot-backend/internal/types"
)

// Engine runs trading cycles: signal, daily pnl, risk gate, broker, persist.
// It holds no state between cycles beyond its collaborators.
type Engine struct {
	broker   interfaces.Broker
	risk     *RiskManager
	signal   SignalFunc
	loc      *time.Location
	journal  interfaces.Journal
	notifier interfaces.TradeNotifier
	now      func() time.Time
}

type Option func(*Engine)

// WithJournal records every cycle outcome, including blocked ones.
func WithJournal(j interfaces.Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithNotifier publishes every persisted trade.
func WithNotifier(n interfaces.TradeNotifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithLocation sets the timezone that defines "today" for daily pnl.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithSignal(s SignalFunc) Option {
	return func(e *Engine) { e.signal = s }
}

func newEngine(brk interfaces.Broker, risk *RiskManager, opts ...Option) *Engine {
	e := &Engine{
		broker: brk,
		risk:   risk,
		signal: PlaceholderSignal(nil, 1),
		loc:    time.UTC,
		now:    time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// RunCycle executes one trading cycle against trades. A blocked cycle writes
// no trade row; a broker rejection is still persisted.
func (e *Engine) RunCycle(ctx context.Context, trades interfaces.TradeStore) (*types.CycleResult, error) {
	sig := e.signal()

	from, to := dayBounds(e.now(), e.loc)
	pnl, err := trades.DailyPnL(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("daily pnl: %w", err)
	}
	logger.Debug(ctx, "Daily pnl computed", "pnl", pnl, "from", from, "to", to)

	decision := e.risk.check(ctx, sig.Symbol, pnl)
	if !decision.Allow {
		logger.Info(ctx, "Risk blocked trade", "symbol", sig.Symbol, "reason", decision.Reason)
		e.record(ctx, sig, types.StatusBlocked, "", 0, decision.Reason, pnl)
		return &types.CycleResult{Status: types.StatusBlocked, Reason: decision.Reason}, nil
	}

	resp := e.broker.PlaceOrder(ctx, types.OrderReq{
		Symbol: sig.Symbol,
		Side:   sig.Side,
		Qty:    sig.Qty,
		Price:  sig.Price,
		Tag:    "bot",
	})
	status := mapOrderStatus(resp.Status)

	reason := PlaceholderReason
	trade := &types.Trade{
		Symbol: sig.Symbol,
		Side:   sig.Side,
		Qty:    sig.Qty,
		Price:  sig.Price,
		Status: status,
		Reason: &reason,
	}
	if err := trades.CreateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("persist trade: %w", err)
	}

	logger.Trade(ctx, trade.Symbol, string(trade.Side), trade.Qty, string(status), resp.OrderID, "trade_id", trade.ID)
	e.record(ctx, sig, status, resp.OrderID, trade.ID, reason, pnl)
	if e.notifier != nil {
		e.notifier.Publish(*trade)
	}

	id := trade.ID
	return &types.CycleResult{Status: status, OrderID: resp.OrderID, TradeID: &id}, nil
}

// Status returns the broker profile and positions. It never touches storage.
func (e *Engine) Status(ctx context.Context) types.BotStatus {
	positions := e.broker.Positions(ctx)
	if positions == nil {
		positions = []types.Position{}
	}
	return types.BotStatus{Broker: e.broker.Profile(), Positions: positions}
}

func (e *Engine) record(ctx context.Context, sig Signal, status types.TradeStatus, orderID string, tradeID int64, reason string, pnl float64) {
	if e.journal == nil {
		return
	}
	err := e.journal.Append(types.JournalEntry{
		Time:    e.now().In(e.loc).Format(time.RFC3339),
		Symbol:  sig.Symbol,
		Side:    sig.Side,
		Qty:     sig.Qty,
		Status:  status,
		OrderID: orderID,
		TradeID: tradeID,
		Reason:  reason,
		PnL:     pnl,
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to append cycle journal", err, "symbol", sig.Symbol)
	}
}

// mapOrderStatus maps FILLED and ACCEPTED to PLACED, anything else to REJECTED.
func mapOrderStatus(s string) types.TradeStatus {
	switch s {
	case types.OrderFilled, types.OrderAccepted:
		return types.StatusPlaced
	}
	return types.StatusRejected
}

// dayBounds returns [midnight, next midnight) of now's date in loc.
func dayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	n := now.In(loc)
	start := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
