// gateway.go — the dashboard-origin gateway and command HTTP surface
// (spec.md §6, SPEC_FULL.md ambient stack). The chi router and cors
// middleware follow the pack's conventional chi-service shape (no
// in-pack production chi+cors wiring example was found to ground against
// directly; this is written from go-chi/chi and go-chi/cors' documented
// public APIs, the same way anthropic-sdk-go was wired in healer/ai.go).
// The origin-allowlist gate on DashboardStart is a second, narrower
// pathway than the generic CORS policy on /command: it decodes the
// dashboard's START_WALKTHROUGH payload itself and drops anything from an
// origin outside cfg.AllowedDashboardOrigins with an empty 204, per
// spec.md's "otherwise silently dropped" — grounded on
// internal/mcp/errors.go's StructuredError/option-function convention for
// the rest of the command surface's error reporting.
package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/brennhill/walkthrough-engine/internal/walkthrough/config"
	"github.com/brennhill/walkthrough-engine/internal/walkthrough/wtypes"
)

// Dispatcher handles one decoded Command and returns the resulting state.
// Satisfied by CommandDispatcher (commands.go), a thin adapter over
// router.Router and the coordinator that maps wtypes.CommandType to the
// right method (cmd/walkthroughd wires this up).
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd wtypes.Command) (wtypes.WalkthroughState, error)
}

// TabReadyHandler answers the page-reload UI-restoration handshake
// (spec.md §6's TAB_READY/wtypes.TabReady).
type TabReadyHandler interface {
	HandleTabReady(ctx context.Context, ready wtypes.TabReady) wtypes.TabReadyResponse
}

// Gateway exposes the command channel, the dashboard-origin-gated start
// endpoint, and the tab-ready handshake over HTTP (spec.md §6).
type Gateway struct {
	dispatch Dispatcher
	tabReady TabReadyHandler
	cfg      config.Config
	log      *zap.Logger
}

// NewGateway constructs a Gateway.
func NewGateway(dispatch Dispatcher, tabReady TabReadyHandler, cfg config.Config, log *zap.Logger) *Gateway {
	return &Gateway{dispatch: dispatch, tabReady: tabReady, cfg: cfg, log: log}
}

// Router builds the chi router: request IDs, panic recovery and a 10s
// request timeout (chi middleware), a
// permissive-by-allowlist CORS policy scoped to AllowedDashboardOrigins,
// the command endpoint, the dashboard-start gateway, the tab-ready
// handshake, and a Prometheus metrics endpoint sharing the coordinator's
// registry.
func (g *Gateway) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   g.cfg.AllowedDashboardOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Post("/command", g.handleCommand)
	r.Post("/dashboard-start", g.handleDashboardStart)
	r.Post("/tab-ready", g.handleTabReady)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (g *Gateway) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd wtypes.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_command_payload")
		return
	}

	state, err := g.dispatch.HandleCommand(r.Context(), cmd)
	if err != nil {
		g.log.Warn("command dispatch failed", zap.String("command", string(cmd.Command)), zap.Error(err))
		writeJSON(w, http.StatusOK, wtypes.CommandResponse{Success: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, wtypes.CommandResponse{Success: true, State: &state})
}

// handleDashboardStart decodes a DashboardStart message and, only if it
// both carries the expected START_WALKTHROUGH type and arrives from an
// allowlisted origin, forwards it as a START command. Anything else is
// dropped with no response body, so a probing request from a disallowed
// origin learns nothing about why it was rejected (spec.md §6).
func (g *Gateway) handleDashboardStart(w http.ResponseWriter, r *http.Request) {
	if !g.originAllowed(r.Header.Get("Origin")) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var msg wtypes.DashboardStart
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil || msg.Type != "START_WALKTHROUGH" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	payload, err := json.Marshal(struct {
		WorkflowID string `json:"workflowId"`
	}{WorkflowID: msg.Payload.WorkflowID})
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	state, err := g.dispatch.HandleCommand(r.Context(), wtypes.Command{
		Type:    "WALKTHROUGH_COMMAND",
		Command: wtypes.CommandStart,
		Payload: payload,
	})
	if err != nil {
		g.log.Warn("dashboard start rejected", zap.Error(err))
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, wtypes.CommandResponse{Success: true, State: &state})
}

func (g *Gateway) originAllowed(origin string) bool {
	for _, allowed := range g.cfg.AllowedDashboardOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

func (g *Gateway) handleTabReady(w http.ResponseWriter, r *http.Request) {
	var msg wtypes.TabReady
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_tab_ready_payload")
		return
	}
	writeJSON(w, http.StatusOK, g.tabReady.HandleTabReady(r.Context(), msg))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, wtypes.CommandResponse{Success: false, Error: code})
}
