package trigger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestStartRun_PostsAgencyID(t *testing.T) {
	agencyID := uuid.New()

	var gotPath, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	if err := client.StartRun(context.Background(), agencyID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/run-agency" {
		t.Fatalf("expected /run-agency, got %s", gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("expected application/json, got %s", gotContentType)
	}

	var payload struct {
		AgencyID uuid.UUID `json:"agency_id"`
	}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if payload.AgencyID != agencyID {
		t.Fatalf("expected agency %s, got %s", agencyID, payload.AgencyID)
	}
}

func TestStartRun_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "queue full", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.StartRun(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
}
