// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package opchannel is the C9 update-command sink: the operator
// message-bus surface that receives "mark server updated" commands
// plus a benign chat echo and the /metrics, /healthz endpoints, all
// routed over HTTP via gorilla/mux.
package opchannel

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"grimm.is/sdnlb/internal/errors"
	"grimm.is/sdnlb/internal/generation"
	"grimm.is/sdnlb/internal/lbmodel"
	"grimm.is/sdnlb/internal/logging"
	"grimm.is/sdnlb/internal/metrics"
)

// updateServerRequest is the wire shape of a single update_server
// message: a record with field msg carrying an IPv4 string.
type updateServerRequest struct {
	Msg string `json:"msg"`
}

// updateServerResponse echoes msg and carries the running count of
// messages seen.
type updateServerResponse struct {
	Msg   string `json:"msg"`
	Count uint64 `json:"count"`
}

type chatRequest struct {
	Msg string `json:"msg"`
}

type chatResponse struct {
	Msg string `json:"msg"`
}

// Handlers wires the two operator channels and the observability
// surface onto a mux.Router. mu is the lock shared with the probe
// engine and packet-in dispatcher, taken around every mutation of gen
// since HTTP handlers run on their own goroutines.
type Handlers struct {
	gen     *generation.Model
	mu      *sync.Mutex
	metrics *metrics.Metrics
	log     *logging.Logger
	count   atomic.Uint64
}

func New(gen *generation.Model, mu *sync.Mutex, m *metrics.Metrics) *Handlers {
	return &Handlers{gen: gen, mu: mu, metrics: m, log: logging.Default().With("component", "opchannel")}
}

// RegisterRoutes mounts update_server, chat, /metrics, and /healthz.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/update_server", h.handleUpdateServer).Methods(http.MethodPost)
	router.HandleFunc("/chat", h.handleChat).Methods(http.MethodPost)
	router.HandleFunc("/healthz", h.handleHealthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

func (h *Handlers) handleUpdateServer(w http.ResponseWriter, r *http.Request) {
	count := h.count.Add(1)

	var req updateServerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errors.Wrap(err, errors.KindValidation, "malformed update_server message"))
		return
	}

	backend, err := lbmodel.NewBackend(req.Msg)
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.Wrap(err, errors.KindValidation, "msg is not an IPv4 address"))
		return
	}

	if h.mu != nil {
		h.mu.Lock()
	}
	ok := h.gen.MarkUpdated(backend)
	var nonUpdated, updated int
	if ok {
		nonUpdated, updated = len(h.gen.NonUpdated()), len(h.gen.Updated())
	}
	if h.mu != nil {
		h.mu.Unlock()
	}

	if !ok {
		h.log.Warn("mark_updated named an unknown backend", "backend", backend)
		respondError(w, http.StatusUnprocessableEntity, errors.Errorf(errors.KindUnknownUpdateTarget, "backend %s is not in the server set", backend))
		return
	}

	if h.metrics != nil {
		h.metrics.UpdateCommands.Inc()
		h.metrics.NonUpdatedBackends.Set(float64(nonUpdated))
		h.metrics.UpdatedBackends.Set(float64(updated))
	}
	h.log.Info("marked backend updated", "backend", backend, "count", count)

	respondWithJSON(w, http.StatusOK, updateServerResponse{Msg: req.Msg, Count: count})
}

// handleChat is a benign echo for connectivity testing.
func (h *Handlers) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errors.Wrap(err, errors.KindValidation, "malformed chat message"))
		return
	}
	respondWithJSON(w, http.StatusOK, chatResponse{Msg: req.Msg})
}

func (h *Handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondError(w http.ResponseWriter, code int, err error) {
	respondWithJSON(w, code, map[string]string{"error": err.Error(), "kind": errors.KindOf(err).String()})
}
