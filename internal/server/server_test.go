package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/mkarlsen/biolens/pkg/errors"
	"github.com/mkarlsen/biolens/pkg/graph"
	"github.com/mkarlsen/biolens/pkg/pipeline"
)

// stubStore serves a fixed record set, or a fixed error.
type stubStore struct {
	records []graph.Record
	err     error
}

func (s *stubStore) Load(ctx context.Context) ([]graph.Record, error) {
	return s.records, s.err
}

func (s *stubStore) Close(ctx context.Context) error { return nil }

func testServer(t *testing.T, st *stubStore) *Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	return New(st, pipeline.NewRunner(nil, nil, logger), logger)
}

func testRecords() []graph.Record {
	return []graph.Record{
		{
			ID:       "exp-1",
			Title:    "Microbial Growth in Microgravity",
			Category: "microbiology",
			Links: &graph.Links{
				Related: []string{"exp-2"},
			},
		},
		{
			ID:       "exp-2",
			Title:    "Arabidopsis Root Orientation",
			Category: "plant-studies",
		},
	}
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := testServer(t, &stubStore{records: testRecords()})

	rec := get(t, srv, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want %q", body["status"], "ok")
	}
	if body["version"] == "" {
		t.Error("version field is empty")
	}
}

func TestExperiments(t *testing.T) {
	srv := testServer(t, &stubStore{records: testRecords()})

	rec := get(t, srv, "/api/experiments")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Experiments []graph.Record `json:"experiments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Experiments) != 2 {
		t.Errorf("len(experiments) = %d, want 2", len(body.Experiments))
	}
}

func TestExperimentsStoreError(t *testing.T) {
	srv := testServer(t, &stubStore{
		err: errors.New(errors.ErrCodeFileNotFound, "experiment file missing"),
	})

	rec := get(t, srv, "/api/experiments")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	var body struct {
		Code errors.Code `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Code != errors.ErrCodeFileNotFound {
		t.Errorf("code = %q, want %q", body.Code, errors.ErrCodeFileNotFound)
	}
}

func TestGraph(t *testing.T) {
	srv := testServer(t, &stubStore{records: testRecords()})

	rec := get(t, srv, "/api/graph")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Nodes       []*graph.Node     `json:"nodes"`
		Edges       []graph.Edge      `json:"edges"`
		Diagnostics graph.Diagnostics `json:"diagnostics"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Nodes) != 2 {
		t.Errorf("len(nodes) = %d, want 2", len(body.Nodes))
	}
	if len(body.Edges) != 1 {
		t.Errorf("len(edges) = %d, want 1", len(body.Edges))
	}
}

func TestGraphFiltered(t *testing.T) {
	srv := testServer(t, &stubStore{records: testRecords()})

	rec := get(t, srv, "/api/graph?filter=microbiology")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		Nodes []*graph.Node `json:"nodes"`
		Edges []graph.Edge  `json:"edges"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(body.Nodes) != 1 {
		t.Fatalf("len(nodes) = %d, want 1", len(body.Nodes))
	}
	if body.Nodes[0].ID != "exp-1" {
		t.Errorf("node ID = %q, want %q", body.Nodes[0].ID, "exp-1")
	}
	if len(body.Edges) != 0 {
		t.Errorf("len(edges) = %d, want 0", len(body.Edges))
	}
}

func TestGraphInvalidFilter(t *testing.T) {
	srv := testServer(t, &stubStore{records: testRecords()})

	rec := get(t, srv, "/api/graph?filter=astrology")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSceneSVG(t *testing.T) {
	srv := testServer(t, &stubStore{records: testRecords()})

	rec := get(t, srv, "/api/scene")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q, want %q", ct, "image/svg+xml")
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Error("body does not contain an svg element")
	}
}

func TestSceneGraphviz(t *testing.T) {
	srv := testServer(t, &stubStore{records: testRecords()})

	rec := get(t, srv, "/api/scene?format=graphviz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q, want %q", ct, "image/svg+xml")
	}
	if !strings.Contains(rec.Body.String(), "<svg") {
		t.Error("body does not contain an svg element")
	}
}

func TestSceneJSON(t *testing.T) {
	srv := testServer(t, &stubStore{records: testRecords()})

	rec := get(t, srv, "/api/scene?format=json&mode=radial&seed=7")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want %q", ct, "application/json")
	}

	var scene struct {
		Nodes []json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &scene); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(scene.Nodes) != 2 {
		t.Errorf("len(nodes) = %d, want 2", len(scene.Nodes))
	}
}

func TestSceneInvalidParams(t *testing.T) {
	srv := testServer(t, &stubStore{records: testRecords()})

	tests := []struct {
		name string
		path string
	}{
		{"bad format", "/api/scene?format=gif"},
		{"bad mode", "/api/scene?mode=spiral"},
		{"bad width", "/api/scene?width=-10"},
		{"bad seed", "/api/scene?seed=abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv, tt.path)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidFilter, http.StatusBadRequest},
		{errors.ErrCodeNodeNotFound, http.StatusNotFound},
		{errors.ErrCodeNetwork, http.StatusBadGateway},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.code); got != tt.want {
			t.Errorf("statusFor(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
