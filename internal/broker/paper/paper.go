package paper

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"

	"trading-bot-backend/internal/interfaces"
	"trading-bot-backend/internal/types"
)

// OrderIDPrefix marks order ids produced by the simulator.
const OrderIDPrefix = "PAPER-"

// Order is one entry of the simulator's append-only order log.
type Order struct {
	OrderID string
	Symbol  string
	Side    types.Side
	Qty     int
	Price   *float64
	Status  string
}

// Broker fills every order immediately and keeps net positions in memory.
// A single mutex covers the order log and the position read-modify-write, so
// the scheduler and manual triggers may call it concurrently.
type Broker struct {
	mu        sync.Mutex
	orders    []Order
	positions map[string]int
	symbols   []string // first-seen order of positions
}

var _ interfaces.Broker = (*Broker)(nil)

func New() *Broker {
	return &Broker{positions: make(map[string]int)}
}

func (b *Broker) PlaceOrder(_ context.Context, req types.OrderReq) types.OrderResp {
	id := OrderIDPrefix + ulid.Make().String()

	sign := 1
	if req.Side == types.SideSell {
		sign = -1
	}

	b.mu.Lock()
	b.orders = append(b.orders, Order{
		OrderID: id,
		Symbol:  req.Symbol,
		Side:    req.Side,
		Qty:     req.Qty,
		Price:   req.Price,
		Status:  types.OrderFilled,
	})
	if _, ok := b.positions[req.Symbol]; !ok {
		b.symbols = append(b.symbols, req.Symbol)
	}
	b.positions[req.Symbol] += sign * req.Qty
	b.mu.Unlock()

	return types.OrderResp{OrderID: id, Status: types.OrderFilled, Message: "Simulated order"}
}

// Positions returns net quantities in the order symbols were first traded.
func (b *Broker) Positions(_ context.Context) []types.Position {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]types.Position, 0, len(b.symbols))
	for _, s := range b.symbols {
		out = append(out, types.Position{Symbol: s, Qty: b.positions[s]})
	}
	return out
}

func (b *Broker) Profile() types.BrokerProfile {
	return types.BrokerProfile{Mode: "paper", Connected: true}
}

// Orders returns a copy of the order log.
func (b *Broker) Orders() []Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Order(nil), b.orders...)
}
