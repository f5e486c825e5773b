package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTrade is returned when a trade fails validation.
var ErrInvalidTrade = errors.New("invalid trade")

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide normalizes a side string. Only BUY and SELL are accepted.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", fmt.Errorf("%w: side must be BUY or SELL, got %q", ErrInvalidTrade, s)
}

type TradeStatus string

const (
	StatusPending  TradeStatus = "PENDING"
	StatusPlaced   TradeStatus = "PLACED"
	StatusRejected TradeStatus = "REJECTED"
	StatusBlocked  TradeStatus = "BLOCKED"
	StatusManual   TradeStatus = "MANUAL"
)

// Valid reports whether s is one of the defined trade statuses.
func (s TradeStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPlaced, StatusRejected, StatusBlocked, StatusManual:
		return true
	}
	return false
}

// NeedsReason reports whether a trade in this status must carry a reason.
func (s TradeStatus) NeedsReason() bool {
	return s == StatusBlocked || s == StatusRejected
}

// Trade is one attempted or completed trading action.
type Trade struct {
	ID        int64       `json:"id"`
	Symbol    string      `json:"symbol"`
	Side      Side        `json:"side"`
	Qty       int         `json:"qty"`
	Price     *float64    `json:"price"`
	Status    TradeStatus `json:"status"`
	Reason    *string     `json:"reason"`
	PnL       *float64    `json:"pnl"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Validate checks the trade invariants that hold before it is persisted.
func (t *Trade) Validate() error {
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidTrade)
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return fmt.Errorf("%w: side must be BUY or SELL, got %q", ErrInvalidTrade, t.Side)
	}
	if t.Qty < 1 {
		return fmt.Errorf("%w: qty must be >= 1, got %d", ErrInvalidTrade, t.Qty)
	}
	if t.Price != nil && *t.Price <= 0 {
		return fmt.Errorf("%w: price must be positive, got %v", ErrInvalidTrade, *t.Price)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTrade, t.Status)
	}
	if t.Status.NeedsReason() && (t.Reason == nil || *t.Reason == "") {
		return fmt.Errorf("%w: reason is required for status %s", ErrInvalidTrade, t.Status)
	}
	return nil
}

// TradeCreate is the manual trade entry payload.
type TradeCreate struct {
	Symbol string   `json:"symbol"`
	Side   string   `json:"side"`
	Qty    *int     `json:"qty,omitempty"`
	Price  *float64 `json:"price,omitempty"`
	Reason *string  `json:"reason,omitempty"`
}

// ToTrade converts the payload into a MANUAL trade. Qty defaults to 1.
func (c TradeCreate) ToTrade() (*Trade, error) {
	side, err := ParseSide(c.Side)
	if err != nil {
		return nil, err
	}
	qty := 1
	if c.Qty != nil {
		qty = *c.Qty
	}
	t := &Trade{
		Symbol: strings.TrimSpace(c.Symbol),
		Side:   side,
		Qty:    qty,
		Price:  c.Price,
		Status: StatusManual,
		Reason: c.Reason,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Broker order statuses.
const (
	OrderFilled   = "FILLED"
	OrderAccepted = "ACCEPTED"
	OrderRejected = "REJECTED"
)

type OrderReq struct {
	Symbol string
	Side   Side
	Qty    int
	Price  *float64
	Tag    string
}

// OrderResp is the broker's answer to a PlaceOrder call.
type OrderResp struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type Position struct {
	Symbol string `json:"symbol"`
	Qty    int    `json:"qty"`
}

type BrokerProfile struct {
	Mode      string `json:"mode"`
	Connected bool   `json:"connected"`
}

type BotStatus struct {
	Broker    BrokerProfile `json:"broker"`
	Positions []Position    `json:"positions"`
}

// RiskDecision is the Risk Gate verdict. Reason is set iff Allow is false.
type RiskDecision struct {
	Allow  bool
	Reason string
}

// CycleResult is the outcome of one trading cycle.
type CycleResult struct {
	Status  TradeStatus `json:"status"`
	Reason  string      `json:"reason,omitempty"`
	OrderID string      `json:"order_id,omitempty"`
	TradeID *int64      `json:"trade_id,omitempty"`
}

// ConfigItem is one row of the runtime key/value configuration table.
type ConfigItem struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
	Active    bool      `json:"active"`
}

type NewsQuery struct {
	Query    string `json:"query"`
	PageSize int    `json:"page_size"`
	Language string `json:"language"`
}

type NewsArticle struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Source      string  `json:"source"`
	PublishedAt *string `json:"published_at"`
	Sentiment   float64 `json:"sentiment"`
}

// JournalEntry is one line of the cycle audit journal.
type JournalEntry struct {
	Time    string      `json:"time"`
	Symbol  string      `json:"symbol"`
	Side    Side        `json:"side"`
	Qty     int         `json:"qty"`
	Status  TradeStatus `json:"status"`
	OrderID string      `json:"order_id,omitempty"`
	TradeID int64       `json:"trade_id,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	PnL     float64     `json:"daily_pnl"`
}
