package interfaces

import (
	"context"
	"time"

	"trading-bot-backend/internal/types"
)

type TradeStore interface {
	CreateTrade(ctx context.Context, t *types.Trade) error
	ListTrades(ctx context.Context) ([]types.Trade, error)
	TradesBetween(ctx context.Context, from, to time.Time) ([]types.Trade, error)
	DailyPnL(ctx context.Context, from, to time.Time) (float64, error)
	AttachPnL(ctx context.Context, id int64, pnl float64) (*types.Trade, error)
}

type ConfigStore interface {
	ListConfig(ctx context.Context) ([]types.ConfigItem, error)
	UpsertConfig(ctx context.Context, key string, value any) (*types.ConfigItem, error)
	DeleteConfig(ctx context.Context, key string) error
}

// Session is one scoped storage connection. Close releases it.
type Session interface {
	TradeStore
	ConfigStore
	Close() error
}

type SessionProvider interface {
	Acquire(ctx context.Context) (Session, error)
}
