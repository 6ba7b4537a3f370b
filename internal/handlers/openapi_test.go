package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/portfolio-api/api/openapi"
	"github.com/gorilla/mux"
)

func TestOpenAPIHandler(t *testing.T) {
	t.Parallel()

	h, err := NewOpenAPIHandler(openapi.Spec)
	if err != nil {
		t.Fatalf("NewOpenAPIHandler() error: %v", err)
	}
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/openapi.yaml", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for YAML, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-yaml" {
		t.Errorf("Expected YAML content type, got '%s'", ct)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/openapi.json", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 for JSON, got %d", w.Code)
	}

	var doc map[string]any
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatalf("Failed to decode JSON document: %v", err)
	}
	paths, ok := doc["paths"].(map[string]any)
	if !ok {
		t.Fatal("Expected paths object")
	}
	if _, ok := paths["/api/v1/git-stats"]; !ok {
		t.Error("Expected /api/v1/git-stats to be documented")
	}
}

func TestNewOpenAPIHandlerRejectsBadDocument(t *testing.T) {
	t.Parallel()

	for _, doc := range []string{"", "openapi: [unclosed", "- just\n- a list\n"} {
		if _, err := NewOpenAPIHandler([]byte(doc)); err == nil {
			t.Errorf("Expected error for document %q", doc)
		}
	}
}
