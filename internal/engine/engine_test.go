package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-bot-backend/internal/broker/paper"
	"trading-bot-backend/internal/store"
	"trading-bot-backend/internal/types"
)

// memTrades is an in-memory TradeStore.
type memTrades struct {
	mu     sync.Mutex
	trades []types.Trade
	pnl    float64
	pnlErr error
	from   time.Time
	to     time.Time
}

func (m *memTrades) CreateTrade(_ context.Context, t *types.Trade) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = int64(len(m.trades) + 1)
	m.trades = append(m.trades, *t)
	return nil
}

func (m *memTrades) ListTrades(context.Context) ([]types.Trade, error) { return m.trades, nil }

func (m *memTrades) TradesBetween(context.Context, time.Time, time.Time) ([]types.Trade, error) {
	return m.trades, nil
}

func (m *memTrades) DailyPnL(_ context.Context, from, to time.Time) (float64, error) {
	m.from, m.to = from, to
	return m.pnl, m.pnlErr
}

func (m *memTrades) AttachPnL(context.Context, int64, float64) (*types.Trade, error) {
	return nil, store.ErrNotFound
}

type stubBroker struct {
	resp   types.OrderResp
	orders []types.OrderReq
}

func (s *stubBroker) PlaceOrder(_ context.Context, req types.OrderReq) types.OrderResp {
	s.orders = append(s.orders, req)
	return s.resp
}

func (s *stubBroker) Positions(context.Context) []types.Position { return nil }

func (s *stubBroker) Profile() types.BrokerProfile {
	return types.BrokerProfile{Mode: "stub", Connected: true}
}

type memJournal struct{ entries []types.JournalEntry }

func (j *memJournal) Append(e types.JournalEntry) error {
	j.entries = append(j.entries, e)
	return nil
}

type memNotifier struct{ trades []types.Trade }

func (n *memNotifier) Publish(t types.Trade) { n.trades = append(n.trades, t) }

func testEngine(brk *stubBroker, opts ...Option) *Engine {
	base := []Option{WithSignal(PlaceholderSignal([]string{"BANKNIFTY"}, 2))}
	return newEngine(brk, NewRiskManager(1000, 250, 250), append(base, opts...)...)
}

func TestRunCycleFilled(t *testing.T) {
	brk := &stubBroker{resp: types.OrderResp{OrderID: "PAPER-1", Status: types.OrderFilled}}
	trades := &memTrades{}
	notifier := &memNotifier{}
	journal := &memJournal{}
	e := testEngine(brk, WithNotifier(notifier), WithJournal(journal))

	res, err := e.RunCycle(context.Background(), trades)
	require.NoError(t, err)

	assert.Equal(t, types.StatusPlaced, res.Status)
	assert.Equal(t, "PAPER-1", res.OrderID)
	require.NotNil(t, res.TradeID)
	require.Len(t, trades.trades, 1)

	tr := trades.trades[0]
	assert.Equal(t, *res.TradeID, tr.ID)
	assert.Equal(t, "BANKNIFTY", tr.Symbol)
	assert.Equal(t, types.SideBuy, tr.Side)
	assert.Equal(t, 2, tr.Qty)
	assert.Nil(t, tr.Price)
	assert.Equal(t, PlaceholderReason, *tr.Reason)

	require.Len(t, brk.orders, 1)
	assert.Equal(t, "BANKNIFTY", brk.orders[0].Symbol)
	assert.Len(t, notifier.trades, 1)
	require.Len(t, journal.entries, 1)
	assert.Equal(t, types.StatusPlaced, journal.entries[0].Status)
}

func TestRunCycleStatusMapping(t *testing.T) {
	tests := []struct {
		broker string
		want   types.TradeStatus
	}{
		{types.OrderFilled, types.StatusPlaced},
		{types.OrderAccepted, types.StatusPlaced},
		{types.OrderRejected, types.StatusRejected},
		{"PENDING", types.StatusRejected},
		{"", types.StatusRejected},
	}
	for _, tt := range tests {
		t.Run(tt.broker, func(t *testing.T) {
			trades := &memTrades{}
			e := testEngine(&stubBroker{resp: types.OrderResp{OrderID: "X", Status: tt.broker}})

			res, err := e.RunCycle(context.Background(), trades)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Status)
			require.Len(t, trades.trades, 1, "rejections are persisted for audit")
			assert.Equal(t, tt.want, trades.trades[0].Status)
		})
	}
}

func TestRunCycleBlockedWritesNoTrade(t *testing.T) {
	brk := &stubBroker{resp: types.OrderResp{Status: types.OrderFilled}}
	trades := &memTrades{pnl: -1000}
	journal := &memJournal{}
	notifier := &memNotifier{}
	e := testEngine(brk, WithJournal(journal), WithNotifier(notifier))

	res, err := e.RunCycle(context.Background(), trades)
	require.NoError(t, err)

	assert.Equal(t, types.StatusBlocked, res.Status)
	assert.Equal(t, "Daily loss limit reached: -1000 <= -1000", res.Reason)
	assert.Empty(t, res.OrderID)
	assert.Nil(t, res.TradeID)
	assert.Empty(t, trades.trades)
	assert.Empty(t, brk.orders, "broker must not be called")
	assert.Empty(t, notifier.trades)
	require.Len(t, journal.entries, 1)
	assert.Equal(t, types.StatusBlocked, journal.entries[0].Status)
	assert.Equal(t, res.Reason, journal.entries[0].Reason)
}

func TestRunCycleStoreError(t *testing.T) {
	e := testEngine(&stubBroker{})
	_, err := e.RunCycle(context.Background(), &memTrades{pnlErr: store.ErrNotInitialized})
	assert.True(t, errors.Is(err, store.ErrNotInitialized))
}

func TestRunCycleDayBoundsUseLocation(t *testing.T) {
	ist := time.FixedZone("IST", 19800)
	now := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC) // 01:30 next day in IST
	trades := &memTrades{}
	e := testEngine(&stubBroker{resp: types.OrderResp{Status: types.OrderFilled}},
		WithLocation(ist), WithClock(func() time.Time { return now }))

	_, err := e.RunCycle(context.Background(), trades)
	require.NoError(t, err)
	assert.True(t, trades.from.Equal(time.Date(2025, 3, 2, 0, 0, 0, 0, ist)))
	assert.Equal(t, 24*time.Hour, trades.to.Sub(trades.from))
}

func TestPlaceholderSignal(t *testing.T) {
	assert.Equal(t, Signal{Symbol: "NIFTY", Side: types.SideBuy, Qty: 1}, PlaceholderSignal(nil, 0)())
	assert.Equal(t, Signal{Symbol: "NIFTY", Side: types.SideBuy, Qty: 3}, PlaceholderSignal([]string{}, 3)())
	assert.Equal(t, Signal{Symbol: "INFY", Side: types.SideBuy, Qty: 5}, PlaceholderSignal([]string{"INFY", "TCS"}, 5)())
}

func TestStatusWithPaperBroker(t *testing.T) {
	brk := paper.New()
	cfg := store.DefaultConfig()
	eng := New(cfg, brk)
	trades := &memTrades{}

	st := eng.Status(context.Background())
	assert.Equal(t, types.BrokerProfile{Mode: "paper", Connected: true}, st.Broker)
	assert.NotNil(t, st.Positions)
	assert.Empty(t, st.Positions)

	for i := 0; i < 3; i++ {
		res, err := eng.RunCycle(context.Background(), trades)
		require.NoError(t, err)
		assert.Equal(t, types.StatusPlaced, res.Status)
	}

	st = eng.Status(context.Background())
	assert.Equal(t, []types.Position{{Symbol: "NIFTY", Qty: 3}}, st.Positions)
	assert.Len(t, trades.trades, 3)
}
