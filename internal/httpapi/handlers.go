package httpapi

import (
	"net/http"
	"strconv"

	"trading-bot-backend/internal/broker/zerodha"
	"trading-bot-backend/internal/logger"
	"trading-bot-backend/internal/news"
	"trading-bot-backend/internal/types"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var settings map[string]any
	if s.cfg != nil {
		settings = s.cfg.Summary()
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Healthy", "settings": settings})
}

func (s *Server) handleWebsocketDocs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"endpoint":    "/ws/trades",
		"description": "Streams every recorded trade (trading cycles and manual entries) as JSON messages.",
		"message":     map[string]any{"type": "trade", "trade": "<Trade>"},
	})
}

func (s *Server) handleBotStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Status(r.Context()))
}

// handleBotRun runs one cycle synchronously on a request-scoped session.
func (s *Server) handleBotRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.sessions.Acquire(ctx)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	defer sess.Close()

	res, err := s.engine.RunCycle(ctx, sess)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.sessions.Acquire(ctx)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	defer sess.Close()

	trades, err := sess.ListTrades(ctx)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

// handleCreateTrade records a MANUAL trade; the risk gate and broker are not involved.
func (s *Server) handleCreateTrade(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body types.TradeCreate
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	trade, err := body.ToTrade()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sess, err := s.sessions.Acquire(ctx)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	defer sess.Close()

	if err := sess.CreateTrade(ctx, trade); err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	logger.Trade(ctx, trade.Symbol, string(trade.Side), trade.Qty, string(trade.Status), "", "trade_id", trade.ID)
	if s.notifier != nil {
		s.notifier.Publish(*trade)
	}
	writeJSON(w, http.StatusOK, trade)
}

func (s *Server) handleAttachPnL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusUnprocessableEntity, "trade id must be a positive integer")
		return
	}
	var body struct {
		PnL *float64 `json:"pnl"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if body.PnL == nil {
		writeError(w, http.StatusUnprocessableEntity, "pnl is required")
		return
	}

	sess, err := s.sessions.Acquire(ctx)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	defer sess.Close()

	trade, err := sess.AttachPnL(ctx, id, *body.PnL)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

func (s *Server) handleListConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := s.sessions.Acquire(ctx)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	defer sess.Close()

	items, err := sess.ListConfig(ctx)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleUpsertConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var body struct {
		Key   string `json:"key"`
		Value any    `json:"value"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sess, err := s.sessions.Acquire(ctx)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	defer sess.Close()

	item, err := sess.UpsertConfig(ctx, body.Key, body.Value)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := r.PathValue("key")

	sess, err := s.sessions.Acquire(ctx)
	if err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	defer sess.Close()

	if err := sess.DeleteConfig(ctx, key); err != nil {
		writeStoreError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "key": key})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	var body types.NewsQuery
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if _, err := news.Normalize(body, ""); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.news.Search(r.Context(), body))
}

func (s *Server) handleZerodhaLoginURL(w http.ResponseWriter, r *http.Request) {
	if s.cfg == nil || s.cfg.Zerodha.APIKey == "" || s.cfg.Zerodha.RedirectURL == "" {
		writeError(w, http.StatusBadRequest, "Zerodha API key or redirect URL not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"login_url":    zerodha.LoginURL(s.cfg.Zerodha.APIKey),
		"redirect_url": s.cfg.Zerodha.RedirectURL,
	})
}

// handleZerodhaCallback echoes the request token; exchanging it for an access
// token is done out of band.
func (s *Server) handleZerodhaCallback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("request_token")
	if token == "" {
		writeError(w, http.StatusUnprocessableEntity, "request_token is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"request_token": token,
		"note":          "Exchange the request token for an access token and set ZERODHA_ACCESS_TOKEN.",
	})
}
