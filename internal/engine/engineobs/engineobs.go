package engineobs

import (
	"context"
	"time"

	"trading-bot-backend/internal/interfaces"
	"trading-bot-backend/internal/logger"
	"trading-bot-backend/internal/trace"
	"trading-bot-backend/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) RunCycle(ctx context.Context, trades interfaces.TradeStore) (*types.CycleResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.RunCycle")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting trading cycle")

	result, err := oe.engine.RunCycle(ctx, trades)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Trading cycle failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Trading cycle completed",
		"status", result.Status,
		"order_id", result.OrderID,
		"reason", result.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}

func (oe *observableEngine) Status(ctx context.Context) types.BotStatus {
	ctx, span := trace.StartSpan(ctx, "engine.Status")
	defer span.End()

	return oe.engine.Status(ctx)
}
