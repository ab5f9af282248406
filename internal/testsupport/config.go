package testsupport

import (
	"path/filepath"
	"testing"

	"phonogram/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Creator.Name = "Test Creator"
	cfgVal.Creator.Address = "0x00000000000000000000000000000000000000aa"
	cfgVal.Creator.ContributionPercent = 100
	cfgVal.StorageGateway.UploadBaseURL = "http://127.0.0.1:0/upload"
	cfgVal.StorageGateway.GatewayBaseURL = "http://127.0.0.1:0/content"
	cfgVal.StorageGateway.APIKey = "test"
	cfgVal.Verification.BaseURL = "http://127.0.0.1:0/verify"
	cfgVal.Verification.APIKey = "test"
	cfgVal.Ledger.BaseURL = "http://127.0.0.1:0/ledger"
	cfgVal.Ledger.APIKey = "test"
	cfgVal.Ledger.SPGContract = "0x00000000000000000000000000000000000000bb"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithStorageGateway points the config at a test storage gateway.
func WithStorageGateway(uploadBase, gatewayBase string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.StorageGateway.UploadBaseURL = uploadBase
		b.cfg.StorageGateway.GatewayBaseURL = gatewayBase
	}
}

// WithVerificationService points the config at a test verification service.
func WithVerificationService(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Verification.BaseURL = baseURL
	}
}

// WithLedgerService points the config at a test ledger relayer.
func WithLedgerService(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ledger.BaseURL = baseURL
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
