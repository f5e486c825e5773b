package broker

import (
	"time"

	"trading-bot-backend/internal/broker/brokerobs"
	"trading-bot-backend/internal/broker/paper"
	"trading-bot-backend/internal/broker/zerodha"
	"trading-bot-backend/internal/interfaces"
	"trading-bot-backend/internal/store"
)

// Kind names the broker variant in use.
type Kind string

const (
	KindPaper   Kind = "paper"
	KindZerodha Kind = "zerodha"
)

type Params struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	Exchange     string
	Product      string
	OrderTimeout time.Duration
}

// ParamsFromConfig extracts the broker settings from the app config.
func ParamsFromConfig(c *store.Config) Params {
	return Params{
		APIKey:       c.Zerodha.APIKey,
		APISecret:    c.Zerodha.APISecret,
		AccessToken:  c.Zerodha.AccessToken,
		Exchange:     c.Trading.Exchange,
		Product:      c.Trading.Product,
		OrderTimeout: time.Duration(c.Zerodha.OrderTimeoutSeconds) * time.Second,
	}
}

// Select picks Zerodha only when all three credentials are non-empty.
func Select(p Params) Kind {
	if p.APIKey != "" && p.APISecret != "" && p.AccessToken != "" {
		return KindZerodha
	}
	return KindPaper
}

// New builds the selected broker wrapped with logging and tracing.
func New(p Params) (interfaces.Broker, Kind) {
	kind := Select(p)
	var b interfaces.Broker
	switch kind {
	case KindZerodha:
		b = zerodha.New(zerodha.Params{
			APIKey:       p.APIKey,
			APISecret:    p.APISecret,
			AccessToken:  p.AccessToken,
			Exchange:     p.Exchange,
			Product:      p.Product,
			OrderTimeout: p.OrderTimeout,
		})
	default:
		b = paper.New()
	}
	return brokerobs.Wrap(b), kind
}
