package engine

import (
	"trading-bot-backend/internal/engine/engineobs"
	"trading-bot-backend/internal/interfaces"
	"trading-bot-backend/internal/store"
)

// New builds the engine from config, wrapped with logging and tracing.
func New(cfg *store.Config, brk interfaces.Broker, opts ...Option) interfaces.Engine {
	risk := NewRiskManager(cfg.Risk.MaxDailyLoss, cfg.Risk.MaxTradeRisk, defaultRisk(cfg))
	base := []Option{
		WithSignal(PlaceholderSignal(cfg.Trading.Symbols, cfg.Trading.PositionSize)),
		WithLocation(cfg.Location()),
	}
	return engineobs.Wrap(newEngine(brk, risk, append(base, opts...)...))
}

func defaultRisk(cfg *store.Config) float64 {
	if cfg.Risk.DefaultTradeRisk != nil {
		return *cfg.Risk.DefaultTradeRisk
	}
	return cfg.Risk.MaxTradeRisk
}
