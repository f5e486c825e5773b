package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fp(v float64) *float64 { return &v }

func TestCanPlaceOrder(t *testing.T) {
	rm := NewRiskManager(1000, 250, 250)

	tests := []struct {
		name       string
		pnl        float64
		risk       *float64
		allow      bool
		wantReason string
	}{
		{"flat day default risk", 0, nil, true, ""},
		{"small loss", -999.99, nil, true, ""},
		{"at loss floor", -1000, nil, false, "Daily loss limit reached: -1000 <= -1000"},
		{"beyond floor", -1500, nil, false, "Daily loss limit reached: -1500 <= -1000"},
		{"loss cap wins over trade risk", -1500, fp(9999), false, "Daily loss limit reached: -1500 <= -1000"},
		{"risk over cap", 0, fp(300), false, "Risk per trade 300 exceeds max 250"},
		{"risk at cap", 0, fp(250), true, ""},
		{"explicit zero risk", 0, fp(0), true, ""},
		{"profit day", 5000, fp(10), true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := rm.CanPlaceOrder(tt.pnl, tt.risk)
			assert.Equal(t, tt.allow, d.Allow)
			assert.Equal(t, tt.wantReason, d.Reason)
		})
	}
}

func TestCanPlaceOrderDefaultRiskAboveCap(t *testing.T) {
	rm := NewRiskManager(1000, 100, 150)

	d := rm.CanPlaceOrder(0, nil)
	assert.False(t, d.Allow)
	assert.Equal(t, "Risk per trade 150 exceeds max 100", d.Reason)
}

func TestCanPlaceOrderNegativeLimitUsesMagnitude(t *testing.T) {
	rm := NewRiskManager(-500, 250, 100)

	assert.True(t, rm.CanPlaceOrder(-499, nil).Allow)
	d := rm.CanPlaceOrder(-500, nil)
	assert.False(t, d.Allow)
	assert.Contains(t, d.Reason, "<= -500")
}
