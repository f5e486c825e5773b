package engine

import "trading-bot-backend/internal/types"

const (
	// PlaceholderReason tags trades produced by the placeholder signal.
	PlaceholderReason = "placeholder-signal"
	fallbackSymbol    = "NIFTY"
)

// Signal is the order intent a cycle acts on.
type Signal struct {
	Symbol string
	Side   types.Side
	Qty    int
	Price  *float64
}

// SignalFunc produces the signal for one cycle.
type SignalFunc func() Signal

// PlaceholderSignal always buys positionSize of the first configured symbol
// at market. It is a stand-in, not a strategy.
func PlaceholderSignal(symbols []string, positionSize int) SignalFunc {
	symbol := fallbackSymbol
	if len(symbols) > 0 && symbols[0] != "" {
		symbol = symbols[0]
	}
	if positionSize < 1 {
		positionSize = 1
	}
	return func() Signal {
		return Signal{Symbol: symbol, Side: types.SideBuy, Qty: positionSize}
	}
}
