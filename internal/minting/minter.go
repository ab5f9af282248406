package minting

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"phonogram/internal/config"
	"phonogram/internal/logging"
	"phonogram/internal/registration"
	"phonogram/internal/registry"
	"phonogram/internal/services"
	"phonogram/internal/services/ledger"
	"phonogram/internal/services/storage"
	"phonogram/internal/stage"
	"phonogram/internal/verification"
)

// Registrar is the orchestration surface the minting stage needs.
type Registrar interface {
	RegisterAsset(ctx context.Context, input registration.AssetInput) (*registration.AssetResult, error)
}

// Minter drives the ledger registration for a screened work.
type Minter struct {
	store     *registry.Store
	cfg       *config.Config
	logger    *slog.Logger
	registrar Registrar
	policy    registration.GatingPolicy
}

// NewMinter constructs the minting stage handler with the configured storage
// and ledger clients. The policy is handed to the orchestrator per call.
func NewMinter(cfg *config.Config, store *registry.Store, logger *slog.Logger, policy registration.GatingPolicy) (*Minter, error) {
	uploader, err := storage.New(
		cfg.StorageGateway.APIKey,
		cfg.StorageGateway.UploadBaseURL,
		cfg.StorageGateway.GatewayBaseURL,
		storage.WithTimeout(time.Duration(cfg.StorageGateway.RequestTimeout)*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("build storage client: %w", err)
	}
	relayer, err := ledger.New(
		cfg.Ledger.APIKey,
		cfg.Ledger.BaseURL,
		ledger.WithTimeout(time.Duration(cfg.Ledger.RequestTimeout)*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("build ledger client: %w", err)
	}
	orchestrator := registration.New(uploader, relayer, store, cfg, logger)
	return NewMinterWithDependencies(cfg, store, logger, orchestrator, policy), nil
}

// NewMinterWithDependencies allows injecting collaborators (used in tests).
func NewMinterWithDependencies(cfg *config.Config, store *registry.Store, logger *slog.Logger, registrar Registrar, policy registration.GatingPolicy) *Minter {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "minting"))
	}
	return &Minter{store: store, cfg: cfg, logger: stageLogger, registrar: registrar, policy: policy}
}

func (m *Minter) Prepare(ctx context.Context, work *registry.Work) error {
	logger := logging.WithContext(ctx, m.logger)
	work.SetProgress("Registering", "Preparing ledger registration", 0)
	work.ErrorMessage = ""
	logger.Info(
		"starting registration preparation",
		logging.String("title", strings.TrimSpace(work.Title)),
		logging.String(logging.FieldTokenID, strings.TrimSpace(work.TokenID)),
	)
	return nil
}

func (m *Minter) Execute(ctx context.Context, work *registry.Work) error {
	logger := logging.WithContext(ctx, m.logger)
	outcome, err := decodeOutcome(work)
	if err != nil {
		return err
	}
	if work.NeedsReview {
		return services.Wrap(
			services.ErrValidation,
			"minting",
			"validate inputs",
			"Work is held for manual review and cannot be registered",
			nil,
		)
	}

	work.SetProgress("Registering", "Registering asset with ledger", 20)
	result, err := m.registrar.RegisterAsset(ctx, registration.AssetInput{
		WorkID:              work.ID,
		Title:               work.Title,
		Description:         fmt.Sprintf("Audio work by %s", work.CreatorName),
		MediaURL:            work.MediaURL,
		MediaHash:           work.ContentHash,
		MimeType:            registration.MIMEForPath(work.MediaPath),
		VerificationTokenID: work.TokenID,
		Outcome:             outcome,
		Policy:              m.policy,
		Flow:                registration.FlowStandard,
	})
	if err != nil {
		return err
	}
	if result.Skipped {
		work.SetReview("Registration skipped: verification flagged infringement matches")
		work.SetProgressComplete("Registering", "Skipped; flagged for manual review")
		logger.Warn("registration skipped for flagged work")
		return nil
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return services.Wrap(services.ErrValidation, "minting", "encode result", "Failed to encode registration result", err)
	}
	work.MetadataJSON = string(encoded)
	work.SetProgressComplete("Registering", fmt.Sprintf("Registered as %s", result.IPID))
	logger.Info(
		"registration complete",
		logging.String(logging.FieldIPID, result.IPID),
		logging.String("tx_hash", result.TxHash),
		logging.Bool("already_registered", result.AlreadyRegistered),
		logging.Bool("verified", result.Verified),
		logging.Int("confidence", result.Confidence),
	)
	return nil
}

func (m *Minter) HealthCheck(ctx context.Context) stage.Health {
	const name = "minting"
	if m.registrar == nil {
		return stage.Unhealthy(name, "registration orchestrator not configured")
	}
	if strings.TrimSpace(m.cfg.Ledger.BaseURL) == "" {
		return stage.Unhealthy(name, "ledger base URL missing")
	}
	if strings.TrimSpace(m.cfg.Ledger.SPGContract) == "" {
		return stage.Unhealthy(name, "collection contract missing")
	}
	return stage.Healthy(name)
}

func decodeOutcome(work *registry.Work) (*verification.Outcome, error) {
	raw := strings.TrimSpace(work.OutcomeJSON)
	if raw == "" {
		return nil, services.Wrap(
			services.ErrValidation,
			"minting",
			"validate inputs",
			"No verification outcome present on the work; screening must run before registration",
			nil,
		)
	}
	var outcome verification.Outcome
	if err := json.Unmarshal([]byte(raw), &outcome); err != nil {
		return nil, services.Wrap(services.ErrValidation, "minting", "decode outcome", "Stored verification outcome is malformed", err)
	}
	return &outcome, nil
}
