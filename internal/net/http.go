package net

import (
	"encoding/json"
	nethttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"short-order/server"
	"short-order/server/internal/net/ws"
	"short-order/server/internal/telemetry"
)

// HTTPHandlerConfig wires the routing layer.
type HTTPHandlerConfig struct {
	Logger telemetry.Logger
}

// NewHTTPHandler builds the full HTTP surface: health, diagnostics, the join
// and session endpoints, and the websocket upgrade.
func NewHTTPHandler(hub *server.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	wsHandler := ws.NewHandler(hub, ws.HandlerConfig{Logger: cfg.Logger})

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	r.Get("/diagnostics", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		writeJSON(w, nethttp.StatusOK, struct {
			Status     string `json:"status"`
			ServerTime int64  `json:"serverTime"`
			Hub        any    `json:"hub"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Hub:        hub.Diagnostics(),
		})
	})

	r.Post("/join", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		writeJSON(w, nethttp.StatusOK, hub.Join())
	})

	r.Get("/state", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		writeJSON(w, nethttp.StatusOK, hub.Snapshot())
	})

	r.Route("/session", func(r chi.Router) {
		r.Get("/", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
			rec := hub.SessionSnapshot()
			if rec == nil {
				writeJSON(w, nethttp.StatusNotFound, map[string]string{"error": "no session"})
				return
			}
			writeJSON(w, nethttp.StatusOK, rec)
		})
		r.Post("/", func(w nethttp.ResponseWriter, req *nethttp.Request) {
			if err := hub.StartNewRun(req.Context()); err != nil {
				writeJSON(w, nethttp.StatusInternalServerError, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, nethttp.StatusOK, hub.SessionSnapshot())
		})
		r.Post("/complete", func(w nethttp.ResponseWriter, req *nethttp.Request) {
			hub.CompleteSession(req.Context())
			writeJSON(w, nethttp.StatusOK, hub.SessionSnapshot())
		})
		r.Delete("/", func(w nethttp.ResponseWriter, req *nethttp.Request) {
			hub.DeleteSession(req.Context())
			w.WriteHeader(nethttp.StatusNoContent)
		})
	})

	r.Post("/level/restart", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		if err := hub.RestartLevel(); err != nil {
			writeJSON(w, nethttp.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, nethttp.StatusOK, hub.Snapshot())
	})

	r.Get("/ws", wsHandler.Handle)

	return r
}

func writeJSON(w nethttp.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
