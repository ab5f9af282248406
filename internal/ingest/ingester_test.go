package ingest_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"phonogram/internal/ingest"
	"phonogram/internal/logging"
	"phonogram/internal/services"
	"phonogram/internal/services/storage"
	"phonogram/internal/testsupport"
)

func newGateway(t *testing.T) (*httptest.Server, *[][]byte) {
	t.Helper()
	var bodies [][]byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		bodies = append(bodies, data)
		_ = json.NewEncoder(w).Encode(map[string]string{"content_id": "bafy-test-media"})
	}))
	t.Cleanup(server.Close)
	return server, &bodies
}

func TestIngesterExecutePopulatesIdentifiers(t *testing.T) {
	server, bodies := newGateway(t)
	cfg := testsupport.NewConfig(t, testsupport.WithStorageGateway(server.URL, "https://gateway.example/ipfs"))
	store := testsupport.MustOpenStore(t, cfg)

	mediaPath := filepath.Join(testsupport.BaseDir(cfg), "track.mp3")
	content := []byte("phonogram test waveform")
	testsupport.WriteMediaFile(t, mediaPath, content)
	work := testsupport.NewWork(t, store, "Night Drive", mediaPath)

	client, err := storage.New(cfg.StorageGateway.APIKey, cfg.StorageGateway.UploadBaseURL, cfg.StorageGateway.GatewayBaseURL)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	handler := ingest.NewIngesterWithDependencies(cfg, store, logging.NewNop(), client)

	if err := handler.Prepare(context.Background(), work); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := handler.Execute(context.Background(), work); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	sum := sha256.Sum256(content)
	if work.ContentHash != hex.EncodeToString(sum[:]) {
		t.Fatalf("unexpected content hash %q", work.ContentHash)
	}
	if work.MediaContentID != "bafy-test-media" {
		t.Fatalf("unexpected content id %q", work.MediaContentID)
	}
	if !strings.Contains(work.MediaURL, "bafy-test-media") {
		t.Fatalf("gateway URL missing content id: %q", work.MediaURL)
	}
	if !strings.HasPrefix(work.MediaCID, "b") {
		t.Fatalf("unexpected media CID %q", work.MediaCID)
	}
	if !strings.HasPrefix(work.TokenID, "0x") || !strings.Contains(work.TokenID, ":") {
		t.Fatalf("unexpected token id %q", work.TokenID)
	}
	if len(*bodies) != 1 {
		t.Fatalf("expected one upload, got %d", len(*bodies))
	}
	if string((*bodies)[0]) != string(content) {
		t.Fatalf("uploaded bytes differ from source media")
	}
	if work.ProgressPercent != 100 {
		t.Fatalf("expected complete progress, got %v", work.ProgressPercent)
	}
}

func TestIngesterExecuteRejectsMissingMedia(t *testing.T) {
	server, _ := newGateway(t)
	cfg := testsupport.NewConfig(t, testsupport.WithStorageGateway(server.URL, "https://gateway.example/ipfs"))
	store := testsupport.MustOpenStore(t, cfg)
	work := testsupport.NewWork(t, store, "Missing", filepath.Join(testsupport.BaseDir(cfg), "absent.mp3"))

	client, err := storage.New(cfg.StorageGateway.APIKey, cfg.StorageGateway.UploadBaseURL, cfg.StorageGateway.GatewayBaseURL)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	handler := ingest.NewIngesterWithDependencies(cfg, store, logging.NewNop(), client)

	err = handler.Execute(context.Background(), work)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestIngesterExecuteWrapsGatewayFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)
	cfg := testsupport.NewConfig(t, testsupport.WithStorageGateway(server.URL, "https://gateway.example/ipfs"))
	store := testsupport.MustOpenStore(t, cfg)

	mediaPath := filepath.Join(testsupport.BaseDir(cfg), "track.mp3")
	testsupport.WriteMediaFile(t, mediaPath, []byte("payload"))
	work := testsupport.NewWork(t, store, "Gateway Down", mediaPath)

	client, err := storage.New(cfg.StorageGateway.APIKey, cfg.StorageGateway.UploadBaseURL, cfg.StorageGateway.GatewayBaseURL)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	handler := ingest.NewIngesterWithDependencies(cfg, store, logging.NewNop(), client)

	err = handler.Execute(context.Background(), work)
	if !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if work.TokenID != "" {
		t.Fatalf("token id should not be derived before a successful upload, got %q", work.TokenID)
	}
}

func TestIngesterHealthCheck(t *testing.T) {
	server, _ := newGateway(t)
	cfg := testsupport.NewConfig(t, testsupport.WithStorageGateway(server.URL, "https://gateway.example/ipfs"))
	store := testsupport.MustOpenStore(t, cfg)

	client, err := storage.New(cfg.StorageGateway.APIKey, cfg.StorageGateway.UploadBaseURL, cfg.StorageGateway.GatewayBaseURL)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	handler := ingest.NewIngesterWithDependencies(cfg, store, logging.NewNop(), client)
	if health := handler.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy stage, got %+v", health)
	}

	broken := ingest.NewIngesterWithDependencies(cfg, store, logging.NewNop(), nil)
	if health := broken.HealthCheck(context.Background()); health.Ready {
		t.Fatalf("expected unhealthy stage without uploader")
	}
}
