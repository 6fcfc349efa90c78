// Package gateway exposes the approval pipeline over HTTP: publishing
// recommendations, inspecting and deciding the pending approval, and the
// decision history.
package gateway

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/slateops/slate/model/recommendation"
	"github.com/slateops/slate/service/approval"
)

// Gateway wires the approval service into an HTTP router.
type Gateway struct {
	service      approval.Service
	slackHandler http.Handler
}

// Option customises the gateway.
type Option func(*Gateway)

// WithSlackHandler mounts the Slack interactions endpoint.
func WithSlackHandler(handler http.Handler) Option {
	return func(g *Gateway) { g.slackHandler = handler }
}

// New builds a gateway over the supplied approval service.
func New(service approval.Service, options ...Option) *Gateway {
	result := &Gateway{service: service}
	for _, option := range options {
		option(result)
	}
	return result
}

// Router assembles the chi router with all gateway routes.
func (g *Gateway) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/healthz", g.handleHealth)
	router.Route("/v1", func(router chi.Router) {
		router.Post("/recommendations", g.handlePublish)
		router.Get("/approvals/pending", g.handlePending)
		router.Post("/approvals/{taskID}/decision", g.handleDecide)
		router.Get("/decisions", g.handleDecisions)
		router.Get("/stats", g.handleStats)
	})
	if g.slackHandler != nil {
		router.Method(http.MethodPost, "/slack/interactions", g.slackHandler)
	}
	return router
}

type publishResponse struct {
	TaskID string `json:"taskId"`
}

func (g *Gateway) handlePublish(w http.ResponseWriter, r *http.Request) {
	var rec recommendation.Recommendation
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid recommendation payload")
		return
	}
	taskID, err := g.service.Publish(r.Context(), rec)
	switch {
	case errors.Is(err, approval.ErrConflict):
		writeError(w, http.StatusConflict, "a recommendation is already awaiting approval")
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSON(w, http.StatusAccepted, publishResponse{TaskID: taskID})
	}
}

func (g *Gateway) handlePending(w http.ResponseWriter, r *http.Request) {
	pending, err := g.service.CurrentPending(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if pending == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

type decisionRequest struct {
	Decision  approval.Decision `json:"decision"`
	DecidedBy string            `json:"decidedBy"`
	Via       approval.Channel  `json:"via,omitempty"`
}

func (g *Gateway) handleDecide(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")
	var request decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, `invalid body: {"decision":"approved|rejected","decidedBy":"..."}`)
		return
	}
	if request.DecidedBy == "" {
		writeError(w, http.StatusBadRequest, "decidedBy is required")
		return
	}
	via := request.Via
	if via == "" {
		via = approval.ChannelUI
	}

	outcome, err := g.service.Decide(r.Context(), taskID, request.Decision, request.DecidedBy, via)
	switch {
	case errors.Is(err, approval.ErrExpired):
		writeError(w, http.StatusGone, "recommendation has expired")
	case errors.Is(err, approval.ErrNotFound):
		writeError(w, http.StatusNotFound, "no such pending approval")
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeJSON(w, http.StatusOK, outcome)
	}
}

func (g *Gateway) handleDecisions(w http.ResponseWriter, r *http.Request) {
	status := approval.Status(r.URL.Query().Get("status"))
	switch status {
	case "", approval.StatusApproved, approval.StatusRejected:
	default:
		writeError(w, http.StatusBadRequest, "status must be approved or rejected")
		return
	}
	records, err := g.service.History(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []*approval.DecisionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

type statsResponse struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

func (g *Gateway) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := statsResponse{}
	pending, err := g.service.CurrentPending(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if pending != nil {
		stats.Pending = 1
	}
	records, err := g.service.History(r.Context(), "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, record := range records {
		switch record.Decision {
		case approval.DecisionApproved:
			stats.Approved++
		case approval.DecisionRejected:
			stats.Rejected++
		}
	}
	stats.Total = len(records)
	writeJSON(w, http.StatusOK, stats)
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		log.Printf("gateway: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
