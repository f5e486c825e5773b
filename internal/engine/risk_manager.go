package engine

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"trading-bot-backend/internal/logger"
	"trading-bot-backend/internal/types"
)

// RiskManager is the pre-trade risk gate. Its thresholds are fixed at
// construction, so CanPlaceOrder is safe for concurrent use.
type RiskManager struct {
	maxDailyLoss float64
	maxTradeRisk float64
	defaultRisk  float64
}

// NewRiskManager builds a gate. defaultRisk applies when a caller supplies
// no per-trade risk.
func NewRiskManager(maxDailyLoss, maxTradeRisk, defaultRisk float64) *RiskManager {
	return &RiskManager{
		maxDailyLoss: math.Abs(maxDailyLoss),
		maxTradeRisk: maxTradeRisk,
		defaultRisk:  defaultRisk,
	}
}

// CanPlaceOrder evaluates the daily loss cap first, then the per-trade cap.
// A nil riskPerTrade means "use the default"; an explicit zero is honored.
func (rm *RiskManager) CanPlaceOrder(currentDailyPnL float64, riskPerTrade *float64) types.RiskDecision {
	if currentDailyPnL <= -rm.maxDailyLoss {
		return types.RiskDecision{
			Reason: fmt.Sprintf("Daily loss limit reached: %s <= -%s", num(currentDailyPnL), num(rm.maxDailyLoss)),
		}
	}

	risk := rm.defaultRisk
	if riskPerTrade != nil {
		risk = *riskPerTrade
	}
	if risk > rm.maxTradeRisk {
		return types.RiskDecision{
			Reason: fmt.Sprintf("Risk per trade %s exceeds max %s", num(risk), num(rm.maxTradeRisk)),
		}
	}
	return types.RiskDecision{Allow: true}
}

// check runs the gate and logs denials as risk events.
func (rm *RiskManager) check(ctx context.Context, symbol string, pnl float64) types.RiskDecision {
	d := rm.CanPlaceOrder(pnl, nil)
	if !d.Allow {
		logger.Risk(ctx, symbol, "TRADE_BLOCKED_RISK",
			"daily_pnl", pnl,
			"max_daily_loss", rm.maxDailyLoss,
			"max_trade_risk", rm.maxTradeRisk,
			"reason", d.Reason,
		)
	}
	return d
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
