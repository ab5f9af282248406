package screening

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"phonogram/internal/config"
	"phonogram/internal/logging"
	"phonogram/internal/registration"
	"phonogram/internal/registry"
	"phonogram/internal/services"
	"phonogram/internal/services/fingerprint"
	"phonogram/internal/stage"
	"phonogram/internal/verification"
)

// Submitter is the fingerprinting surface the screener needs.
type Submitter interface {
	verification.StatusFetcher
	Submit(ctx context.Context, request *verification.Request) error
}

// Screener runs infringement screening for an ingested work.
type Screener struct {
	store   *registry.Store
	cfg     *config.Config
	logger  *slog.Logger
	service Submitter
	policy  registration.GatingPolicy
	pollers []verification.PollerOption
}

// NewScreener constructs the screening stage handler with the configured
// verification-service client. The policy decides what happens to flagged
// works: GateSkipFlagged parks them for review, GateRecordOnly lets them
// continue to registration with the outcome recorded.
func NewScreener(cfg *config.Config, store *registry.Store, logger *slog.Logger, policy registration.GatingPolicy) (*Screener, error) {
	client, err := fingerprint.New(
		cfg.Verification.APIKey,
		cfg.Verification.BaseURL,
		fingerprint.WithTimeout(time.Duration(cfg.Verification.RequestTimeout)*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("build verification client: %w", err)
	}
	return NewScreenerWithDependencies(cfg, store, logger, client, policy), nil
}

// NewScreenerWithDependencies allows injecting collaborators (used in tests).
// Extra poller options are appended after the configured defaults, so tests
// can replace the sleep function or shrink the attempt budget.
func NewScreenerWithDependencies(cfg *config.Config, store *registry.Store, logger *slog.Logger, service Submitter, policy registration.GatingPolicy, pollerOpts ...verification.PollerOption) *Screener {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "screening"))
	}
	opts := []verification.PollerOption{
		verification.WithLogger(stageLogger),
	}
	if cfg.Verification.PollAttempts > 0 {
		opts = append(opts, verification.WithAttempts(cfg.Verification.PollAttempts))
	}
	if cfg.Verification.PollInterval > 0 {
		opts = append(opts, verification.WithInterval(time.Duration(cfg.Verification.PollInterval)*time.Second))
	}
	opts = append(opts, pollerOpts...)
	return &Screener{store: store, cfg: cfg, logger: stageLogger, service: service, policy: policy, pollers: opts}
}

func (s *Screener) Prepare(ctx context.Context, work *registry.Work) error {
	logger := logging.WithContext(ctx, s.logger)
	work.SetProgress("Screening", "Preparing infringement screening", 0)
	work.ErrorMessage = ""
	logger.Info(
		"starting screening preparation",
		logging.String("title", strings.TrimSpace(work.Title)),
		logging.String(logging.FieldTokenID, strings.TrimSpace(work.TokenID)),
	)
	return nil
}

func (s *Screener) Execute(ctx context.Context, work *registry.Work) error {
	logger := logging.WithContext(ctx, s.logger)
	request, err := s.buildRequest(work)
	if err != nil {
		return err
	}
	work.SetProgress("Screening", "Submitting media for fingerprinting", 10)
	if err := s.service.Submit(ctx, request); err != nil {
		return services.Wrap(services.ErrUpstream, "screening", "submit media", "Verification submission failed", err)
	}
	logger.Info("verification job submitted", logging.Int("media_count", len(request.Media)))

	work.SetProgress("Screening", "Awaiting verification outcome", 40)
	poller := verification.NewPoller(s.service, s.pollers...)
	outcome, err := poller.Poll(ctx, work.TokenID)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(outcome)
	if err != nil {
		return services.Wrap(services.ErrValidation, "screening", "encode outcome", "Failed to encode verification outcome", err)
	}
	work.OutcomeJSON = string(encoded)

	if outcome.Flagged() {
		if s.policy == registration.GateRecordOnly {
			work.SetProgressComplete("Screening", "Flagged; continuing under record-only policy")
			logger.Warn(
				"screening flagged work, continuing under record-only policy",
				logging.Int("external_matches", len(outcome.External)),
				logging.Int("in_network_matches", len(outcome.InNetwork)),
				logging.Int("confidence", outcome.Confidence),
			)
			return nil
		}
		reason := flaggedReason(outcome)
		work.SetReview(reason)
		work.SetProgressComplete("Screening", "Flagged for manual review")
		logger.Warn(
			"screening flagged work for review",
			logging.Int("external_matches", len(outcome.External)),
			logging.Int("in_network_matches", len(outcome.InNetwork)),
			logging.Int("confidence", outcome.Confidence),
		)
		return nil
	}

	work.SetProgressComplete("Screening", "Verification resolved")
	logger.Info(
		"screening complete",
		logging.String("state", string(outcome.State)),
		logging.Bool("verified", outcome.Verified),
		logging.Bool("fallback", outcome.Fallback),
		logging.Int("confidence", outcome.Confidence),
		logging.Int("attempts", outcome.Attempts),
	)
	return nil
}

func (s *Screener) HealthCheck(ctx context.Context) stage.Health {
	const name = "screening"
	if s.service == nil {
		return stage.Unhealthy(name, "verification client not configured")
	}
	if strings.TrimSpace(s.cfg.Verification.BaseURL) == "" {
		return stage.Unhealthy(name, "verification base URL missing")
	}
	return stage.Healthy(name)
}

func (s *Screener) buildRequest(work *registry.Work) (*verification.Request, error) {
	if strings.TrimSpace(work.TokenID) == "" {
		return nil, services.Wrap(
			services.ErrValidation,
			"screening",
			"validate inputs",
			"No verification token present on the work; ingest must run before screening",
			nil,
		)
	}
	if strings.TrimSpace(work.MediaURL) == "" {
		return nil, services.Wrap(
			services.ErrValidation,
			"screening",
			"validate inputs",
			"No media URL present on the work; ingest must run before screening",
			nil,
		)
	}
	mediaID := strings.TrimSuffix(filepath.Base(work.MediaPath), filepath.Ext(work.MediaPath))
	if mediaID == "" {
		mediaID = work.MediaContentID
	}
	request := &verification.Request{
		TokenID:   work.TokenID,
		CreatorID: s.cfg.Creator.Address,
		Metadata: map[string]string{
			"title": work.Title,
		},
		Media: []verification.MediaItem{
			{
				MediaID:     mediaID,
				URL:         work.MediaURL,
				ContentHash: work.ContentHash,
			},
		},
	}
	if err := request.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "screening", "validate request", "Verification request invalid", err)
	}
	return request, nil
}

func flaggedReason(outcome *verification.Outcome) string {
	parts := make([]string, 0, len(outcome.External)+len(outcome.InNetwork))
	for _, match := range outcome.External {
		name := strings.TrimSpace(match.BrandName)
		if name == "" {
			name = match.BrandID
		}
		parts = append(parts, fmt.Sprintf("external match %s (confidence %d)", name, match.Confidence))
	}
	for _, match := range outcome.InNetwork {
		parts = append(parts, fmt.Sprintf("in-network match %s (confidence %d)", match.TokenID, match.Confidence))
	}
	if len(parts) == 0 {
		return "infringement matches reported"
	}
	return "Infringement screening flagged this work: " + strings.Join(parts, "; ")
}
