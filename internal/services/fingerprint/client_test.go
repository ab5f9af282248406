package fingerprint_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"phonogram/internal/services"
	"phonogram/internal/services/fingerprint"
	"phonogram/internal/verification"
)

func validRequest() *verification.Request {
	return &verification.Request{
		TokenID:   "0xabc:42",
		CreatorID: "0xcreator",
		Media: []verification.MediaItem{
			{MediaID: "media-1", URL: "https://gateway.example/content/Qm1", ContentHash: "abc123"},
		},
	}
}

func TestSubmit(t *testing.T) {
	var gotPath, gotKey string
	var gotRequest verification.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client, err := fingerprint.New("secret", server.URL)
	if err != nil {
		t.Fatalf("fingerprint.New: %v", err)
	}
	if err := client.Submit(context.Background(), validRequest()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if gotPath != "/media" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotKey != "secret" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotRequest.TokenID != "0xabc:42" || len(gotRequest.Media) != 1 {
		t.Fatalf("request did not round-trip: %+v", gotRequest)
	}
}

func TestSubmitRejectsInvalidRequest(t *testing.T) {
	client, err := fingerprint.New("secret", "http://127.0.0.1:0")
	if err != nil {
		t.Fatalf("fingerprint.New: %v", err)
	}
	bad := validRequest()
	bad.Media = nil
	err = client.Submit(context.Background(), bad)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error before any request, got %v", err)
	}
}

func TestFetchStatus(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
            "media": [{"media_id": "media-1", "fetch_status": "succeeded"}],
            "infringement_status": "succeeded",
            "infringement_result": "clean"
        }`))
	}))
	defer server.Close()

	client, err := fingerprint.New("secret", server.URL)
	if err != nil {
		t.Fatalf("fingerprint.New: %v", err)
	}
	snapshot, err := client.FetchStatus(context.Background(), "0xabc:42")
	if err != nil {
		t.Fatalf("FetchStatus: %v", err)
	}
	if gotPath != "/media/0xabc:42/status" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if len(snapshot.Media) != 1 || snapshot.Media[0].FetchStatus != verification.FetchSucceeded {
		t.Fatalf("unexpected media results: %+v", snapshot.Media)
	}
	if snapshot.InfringementResult != verification.ResultClean {
		t.Fatalf("unexpected infringement result: %s", snapshot.InfringementResult)
	}
}

func TestFetchStatusUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("verification down"))
	}))
	defer server.Close()

	client, err := fingerprint.New("secret", server.URL)
	if err != nil {
		t.Fatalf("fingerprint.New: %v", err)
	}
	_, err = client.FetchStatus(context.Background(), "0xabc:42")
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	var upstream *services.UpstreamError
	if !errors.As(err, &upstream) || upstream.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500 upstream error, got %v", err)
	}
}

func TestAuthorize(t *testing.T) {
	var gotPath string
	var gotAuth fingerprint.AuthorizationRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotAuth)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := fingerprint.New("secret", server.URL)
	if err != nil {
		t.Fatalf("fingerprint.New: %v", err)
	}
	auth := fingerprint.AuthorizationRequest{MatchedTokenID: "0xfeed:7", LicenseID: "lic-1"}
	if err := client.Authorize(context.Background(), "0xabc:42", auth); err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if gotPath != "/media/0xabc:42/authorize" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotAuth.MatchedTokenID != "0xfeed:7" {
		t.Fatalf("authorization did not round-trip: %+v", gotAuth)
	}
}

func TestAuthorizeRequiresTarget(t *testing.T) {
	client, err := fingerprint.New("secret", "http://127.0.0.1:0")
	if err != nil {
		t.Fatalf("fingerprint.New: %v", err)
	}
	err = client.Authorize(context.Background(), "0xabc:42", fingerprint.AuthorizationRequest{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
