package interfaces

import (
	"context"

	"trading-bot-backend/internal/types"
)

type Engine interface {
	RunCycle(ctx context.Context, trades TradeStore) (*types.CycleResult, error)
	Status(ctx context.Context) types.BotStatus
}

// TradeNotifier receives every trade persisted by the engine or the manual
// entry path.
type TradeNotifier interface {
	Publish(trade types.Trade)
}

// Journal records cycle outcomes, including blocked ones.
type Journal interface {
	Append(entry types.JournalEntry) error
}
