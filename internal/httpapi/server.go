package httpapi

import (
	"net/http"

	"trading-bot-backend/internal/interfaces"
	"trading-bot-backend/internal/store"
)

// Deps are the collaborators injected into the handlers. Notifier and Stream
// are optional.
type Deps struct {
	Config   *store.Config
	Engine   interfaces.Engine
	Sessions interfaces.SessionProvider
	News     interfaces.NewsProvider
	Notifier interfaces.TradeNotifier
	Stream   http.HandlerFunc
}

// Server serves the bot HTTP API.
type Server struct {
	cfg      *store.Config
	engine   interfaces.Engine
	sessions interfaces.SessionProvider
	news     interfaces.NewsProvider
	notifier interfaces.TradeNotifier
	stream   http.HandlerFunc
}

func New(d Deps) *Server {
	return &Server{
		cfg:      d.Config,
		engine:   d.Engine,
		sessions: d.Sessions,
		news:     d.News,
		notifier: d.Notifier,
		stream:   d.Stream,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("GET /docs/websocket", s.handleWebsocketDocs)

	mux.HandleFunc("GET /bot/status", s.handleBotStatus)
	mux.HandleFunc("POST /bot/run", s.handleBotRun)

	mux.HandleFunc("GET /trades/{$}", s.handleListTrades)
	mux.HandleFunc("POST /trades/{$}", s.handleCreateTrade)
	mux.HandleFunc("PUT /trades/{id}/pnl", s.handleAttachPnL)

	mux.HandleFunc("GET /config/{$}", s.handleListConfig)
	mux.HandleFunc("PUT /config/{$}", s.handleUpsertConfig)
	mux.HandleFunc("DELETE /config/{key}", s.handleDeleteConfig)

	mux.HandleFunc("POST /news/{$}", s.handleNews)

	mux.HandleFunc("GET /auth/zerodha/login_url", s.handleZerodhaLoginURL)
	mux.HandleFunc("GET /auth/zerodha/callback", s.handleZerodhaCallback)

	if s.stream != nil {
		mux.HandleFunc("GET /ws/trades", s.stream)
	}
}

// Handler returns an http.Handler with request-id, tracing and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	var origins []string
	if s.cfg != nil {
		origins = s.cfg.Server.CORSAllowOrigins
	}
	return requestIDMiddleware(traceMiddleware(corsMiddleware(origins, mux)))
}
