package interfaces

import (
	"context"

	"trading-bot-backend/internal/types"
)

// Broker places orders and reports positions. Implementations never return
// errors for logical rejections: they answer with a REJECTED OrderResp.
type Broker interface {
	PlaceOrder(ctx context.Context, req types.OrderReq) types.OrderResp
	Positions(ctx context.Context) []types.Position
	Profile() types.BrokerProfile
}
