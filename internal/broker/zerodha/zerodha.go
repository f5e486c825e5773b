package zerodha

import (
	"context"
	"net/http"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"trading-bot-backend/internal/interfaces"
	"trading-bot-backend/internal/logger"
	"trading-bot-backend/internal/types"
)

const (
	// NotConnectedOrderID is returned when an order is rejected before reaching Kite.
	NotConnectedOrderID = "N/A"
	notConnectedMessage = "Not authenticated with Zerodha"
)

type Params struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	Exchange     string
	Product      string
	OrderTimeout time.Duration
}

// Connected reports whether all three credentials are present.
func (p Params) Connected() bool {
	return p.APIKey != "" && p.APISecret != "" && p.AccessToken != ""
}

// kiteClient is the part of the Kite Connect client this broker uses.
type kiteClient interface {
	PlaceOrder(variety string, orderParams kiteconnect.OrderParams) (kiteconnect.OrderResponse, error)
	GetPositions() (kiteconnect.Positions, error)
}

type Zerodha struct {
	p      Params
	client kiteClient
}

var _ interfaces.Broker = (*Zerodha)(nil)

// New builds the Kite-backed broker. No network call is made here; without
// full credentials the client is never used.
func New(p Params) *Zerodha {
	if p.Exchange == "" {
		p.Exchange = "NFO"
	}
	if p.Product == "" {
		p.Product = "NRML"
	}
	if p.OrderTimeout <= 0 {
		p.OrderTimeout = 10 * time.Second
	}

	z := &Zerodha{p: p}
	if p.Connected() {
		kc := kiteconnect.New(p.APIKey)
		kc.SetAccessToken(p.AccessToken)
		kc.SetHTTPClient(&http.Client{Timeout: p.OrderTimeout})
		z.client = kc
	}
	return z
}

func newWithClient(p Params, c kiteClient) *Zerodha {
	return &Zerodha{p: p, client: c}
}

func (z *Zerodha) connected() bool {
	return z.p.Connected() && z.client != nil
}

func (z *Zerodha) PlaceOrder(ctx context.Context, req types.OrderReq) types.OrderResp {
	if !z.connected() {
		return types.OrderResp{OrderID: NotConnectedOrderID, Status: types.OrderRejected, Message: notConnectedMessage}
	}
	if err := ctx.Err(); err != nil {
		return types.OrderResp{OrderID: NotConnectedOrderID, Status: types.OrderRejected, Message: err.Error()}
	}

	params := kiteconnect.OrderParams{
		Exchange:        z.p.Exchange,
		Tradingsymbol:   req.Symbol,
		TransactionType: string(req.Side),
		OrderType:       "MARKET",
		Product:         z.p.Product,
		Quantity:        req.Qty,
		Validity:        "DAY",
		Tag:             req.Tag,
	}
	if req.Price != nil {
		params.OrderType = "LIMIT"
		params.Price = *req.Price
	}

	resp, err := z.client.PlaceOrder(kiteconnect.VarietyRegular, params)
	if err != nil {
		logger.ErrorWithErr(ctx, "Kite order rejected", err, "symbol", req.Symbol, "side", req.Side)
		return types.OrderResp{OrderID: NotConnectedOrderID, Status: types.OrderRejected, Message: err.Error()}
	}
	return types.OrderResp{OrderID: resp.OrderID, Status: types.OrderAccepted, Message: "Order accepted"}
}

// Positions returns Kite net positions. Errors and missing credentials yield
// an empty list.
func (z *Zerodha) Positions(ctx context.Context) []types.Position {
	out := make([]types.Position, 0)
	if !z.connected() {
		return out
	}

	pos, err := z.client.GetPositions()
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to fetch Kite positions", err)
		return out
	}
	for _, p := range pos.Net {
		out = append(out, types.Position{Symbol: p.Tradingsymbol, Qty: p.Quantity})
	}
	return out
}

func (z *Zerodha) Profile() types.BrokerProfile {
	return types.BrokerProfile{Mode: "zerodha", Connected: z.p.Connected()}
}

// LoginURL returns the Kite Connect login URL for apiKey. The redirect URL is
// configured on the Kite developer console, not passed here.
func LoginURL(apiKey string) string {
	return kiteconnect.New(apiKey).GetLoginURL()
}
