package brokerobs

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"trading-bot-backend/internal/interfaces"
	"trading-bot-backend/internal/logger"
	"trading-bot-backend/internal/trace"
	"trading-bot-backend/internal/types"
)

// observableBroker wraps a Broker with observability (logging & tracing)
type observableBroker struct {
	broker interfaces.Broker
}

// Compile-time interface check
var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap wraps a broker with observability middleware
func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{broker: broker}
}

// PlaceOrder places an order with observability
func (ob *observableBroker) PlaceOrder(ctx context.Context, req types.OrderReq) types.OrderResp {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"symbol", req.Symbol,
		"side", req.Side,
		"qty", req.Qty,
		"tag", req.Tag,
		"mode", ob.broker.Profile().Mode,
	)

	resp := ob.broker.PlaceOrder(ctx, req)
	span.SetAttributes(
		attribute.String("symbol", req.Symbol),
		attribute.String("order.status", resp.Status),
	)

	if resp.Status == types.OrderRejected {
		logger.WarnSkip(ctx, 1, "Order rejected by broker",
			"symbol", req.Symbol,
			"order_id", resp.OrderID,
			"message", resp.Message,
		)
		return resp
	}

	logger.InfoSkip(ctx, 1, "Order placed successfully",
		"symbol", req.Symbol,
		"order_id", resp.OrderID,
		"status", resp.Status,
	)
	return resp
}

// Positions fetches positions with observability
func (ob *observableBroker) Positions(ctx context.Context) []types.Position {
	ctx, span := trace.StartSpan(ctx, "broker.Positions")
	defer span.End()

	positions := ob.broker.Positions(ctx)
	logger.DebugSkip(ctx, 1, "Positions fetched", "count", len(positions))
	return positions
}

func (ob *observableBroker) Profile() types.BrokerProfile {
	return ob.broker.Profile()
}
