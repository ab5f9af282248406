package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"phonogram/internal/config"
)

func validConfigTOML() string {
	return `
[creator]
name = "Test Artist"
address = "0xABCDEF0123456789abcdef0123456789ABCDEF01"

[storage_gateway]
upload_base_url = "https://uploads.example.com/"
gateway_base_url = "https://gateway.example.com/ipfs/"
api_key = "secret"

[verification]
base_url = "https://verify.example.com"
api_key = "secret"

[ledger]
base_url = "https://ledger.example.com"
spg_contract = "0x1514000000000000000000000000000000000000"
`
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validConfigTOML())
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Creator.Address != "0xabcdef0123456789abcdef0123456789abcdef01" {
		t.Fatalf("expected lowercased creator address, got %q", cfg.Creator.Address)
	}
	if cfg.StorageGateway.UploadBaseURL != "https://uploads.example.com" {
		t.Fatalf("expected trimmed upload base url, got %q", cfg.StorageGateway.UploadBaseURL)
	}
	if cfg.Verification.PollAttempts != 10 {
		t.Fatalf("expected default poll attempts 10, got %d", cfg.Verification.PollAttempts)
	}
	if cfg.Verification.PollInterval != 1 {
		t.Fatalf("expected default poll interval 1, got %d", cfg.Verification.PollInterval)
	}
	if cfg.Licensing.DefaultMintingFee != 1 || cfg.Licensing.CommercialRevShare != 5 {
		t.Fatalf("unexpected licensing defaults: %+v", cfg.Licensing)
	}
	if cfg.Ledger.RequestTimeout != 180 {
		t.Fatalf("expected default ledger request timeout 180, got %d", cfg.Ledger.RequestTimeout)
	}
}

func TestLoadRejectsMissingCreatorAddress(t *testing.T) {
	contents := strings.Replace(validConfigTOML(), `address = "0xABCDEF0123456789abcdef0123456789ABCDEF01"`, `address = ""`, 1)
	path := writeConfig(t, contents)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for missing creator address")
	}
}

func TestLoadRejectsBadContract(t *testing.T) {
	contents := strings.Replace(validConfigTOML(), `spg_contract = "0x1514000000000000000000000000000000000000"`, `spg_contract = "1514"`, 1)
	path := writeConfig(t, contents)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for non-0x contract")
	}
}

func TestValidateLoggingFormat(t *testing.T) {
	contents := validConfigTOML() + "\n[logging]\nformat = \"fancy\"\n"
	path := writeConfig(t, contents)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[storage_gateway]") {
		t.Fatal("sample config missing storage_gateway section")
	}
}
