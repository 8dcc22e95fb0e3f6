// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package opchannel

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"grimm.is/sdnlb/internal/generation"
	"grimm.is/sdnlb/internal/lbmodel"
	"grimm.is/sdnlb/internal/metrics"
)

func newTestRouter(t *testing.T) (*mux.Router, *generation.Model) {
	t.Helper()
	backends := []lbmodel.Backend{"10.0.0.2", "10.0.0.3"}
	gen := generation.New(backends)
	m := metrics.New(prometheus.NewRegistry())
	var mu sync.Mutex
	h := New(gen, &mu, m)
	router := mux.NewRouter()
	h.RegisterRoutes(router)
	return router, gen
}

func postJSON(t *testing.T, router *mux.Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUpdateServerMarksBackendAndCounts(t *testing.T) {
	router, gen := newTestRouter(t)

	rec := postJSON(t, router, "/update_server", updateServerRequest{Msg: "10.0.0.2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp updateServerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 || resp.Msg != "10.0.0.2" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !gen.InUpdated(lbmodel.Backend("10.0.0.2")) {
		t.Fatal("expected backend to be marked updated")
	}

	rec2 := postJSON(t, router, "/update_server", updateServerRequest{Msg: "10.0.0.3"})
	var resp2 updateServerResponse
	json.Unmarshal(rec2.Body.Bytes(), &resp2)
	if resp2.Count != 2 {
		t.Fatalf("expected running count 2, got %d", resp2.Count)
	}
}

func TestUpdateServerUnknownBackendRejected(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := postJSON(t, router, "/update_server", updateServerRequest{Msg: "10.0.0.99"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown backend, got %d", rec.Code)
	}
}

func TestChatEchoesMessage(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := postJSON(t, router, "/chat", chatRequest{Msg: "ping"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp chatResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Msg != "ping" {
		t.Fatalf("expected echo, got %q", resp.Msg)
	}
}

func TestHealthzReportsHealthy(t *testing.T) {
	router, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
