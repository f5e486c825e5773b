package broker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"trading-bot-backend/internal/types"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want Kind
	}{
		{"no credentials", Params{}, KindPaper},
		{"missing token", Params{APIKey: "k", APISecret: "s"}, KindPaper},
		{"missing secret", Params{APIKey: "k", AccessToken: "a"}, KindPaper},
		{"missing key", Params{APISecret: "s", AccessToken: "a"}, KindPaper},
		{"all present", Params{APIKey: "k", APISecret: "s", AccessToken: "a"}, KindZerodha},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.p))
		})
	}
}

func TestNewFallsBackToPaper(t *testing.T) {
	b, kind := New(Params{APIKey: "k"})
	assert.Equal(t, KindPaper, kind)
	assert.Equal(t, types.BrokerProfile{Mode: "paper", Connected: true}, b.Profile())

	resp := b.PlaceOrder(context.Background(), types.OrderReq{Symbol: "NIFTY", Side: types.SideBuy, Qty: 1})
	assert.Equal(t, types.OrderFilled, resp.Status)
}

func TestNewZerodha(t *testing.T) {
	b, kind := New(Params{APIKey: "k", APISecret: "s", AccessToken: "a"})
	assert.Equal(t, KindZerodha, kind)
	assert.Equal(t, types.BrokerProfile{Mode: "zerodha", Connected: true}, b.Profile())
}
