package verification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"phonogram/internal/logging"
	"phonogram/internal/services"
)

// State is the poller lifecycle state.
type State string

const (
	StateSubmitted State = "submitted"
	StatePolling   State = "polling"

	ResolvedClean           State = "resolved_clean"
	ResolvedFlagged         State = "resolved_flagged"
	ResolvedTimeoutFallback State = "resolved_timeout_fallback"
	ResolvedError           State = "resolved_error"
)

const (
	// DefaultAttempts bounds the poll loop; with the default interval the
	// worst case is roughly ten seconds of polling.
	DefaultAttempts = 10
	// DefaultInterval is the fixed inter-poll delay.
	DefaultInterval = time.Second
)

// Confidence values surfaced to end users as a trust signal. Fixed by
// product decision; fallback is deliberately below a genuine clean result.
const (
	ConfidenceFallback   = 85
	ConfidenceClean      = 90
	ConfidenceNotChecked = 95
)

// HashMismatchMessage distinguishes a content-hash mismatch from generic
// verification failure: the former is actionable by re-uploading.
const HashMismatchMessage = "content may have been modified after upload"

// Outcome is the terminal result of a poll run. Verified is true only for a
// genuine clean resolution or the explicit timeout-fallback path; Fallback
// distinguishes synthetic results from real ones for downstream auditing.
type Outcome struct {
	State      State                   `json:"state"`
	Verified   bool                    `json:"verified"`
	Fallback   bool                    `json:"fallback"`
	Confidence int                     `json:"confidence"`
	Message    string                  `json:"message,omitempty"`
	Attempts   int                     `json:"attempts"`
	External   []ExternalInfringement  `json:"external_infringements,omitempty"`
	InNetwork  []InNetworkInfringement `json:"in_network_infringements,omitempty"`
}

// Flagged reports whether the outcome carries infringement matches.
func (o *Outcome) Flagged() bool {
	return o != nil && o.State == ResolvedFlagged
}

// StatusFetcher retrieves the current verification snapshot for a token.
type StatusFetcher interface {
	FetchStatus(ctx context.Context, tokenID string) (*Snapshot, error)
}

// Poller drives a submitted verification job to a terminal outcome under a
// bounded-retry policy.
type Poller struct {
	fetcher  StatusFetcher
	attempts int
	interval time.Duration
	sleep    func(context.Context, time.Duration) error
	logger   *slog.Logger
}

// PollerOption configures optional Poller behavior.
type PollerOption func(*Poller)

// WithAttempts overrides the poll attempt budget.
func WithAttempts(attempts int) PollerOption {
	return func(p *Poller) {
		if attempts > 0 {
			p.attempts = attempts
		}
	}
}

// WithInterval overrides the fixed inter-poll delay.
func WithInterval(interval time.Duration) PollerOption {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithSleep injects the delay function so tests run without real time
// passing.
func WithSleep(sleep func(context.Context, time.Duration) error) PollerOption {
	return func(p *Poller) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// WithLogger sets the poller's logging destination.
func WithLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logging.NewComponentLogger(logger, "verification")
	}
}

// NewPoller constructs a poller with the default budget.
func NewPoller(fetcher StatusFetcher, opts ...PollerOption) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		attempts: DefaultAttempts,
		interval: DefaultInterval,
		sleep:    sleepContext,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll fetches the verification snapshot for tokenID until a terminal state
// or the attempt budget is exhausted. Budget exhaustion resolves to the
// timeout fallback rather than an error so the creator is never blocked
// indefinitely. Cancellation is cooperative, checked once per iteration.
//
// A non-nil error accompanies only ResolvedError outcomes (tagged with
// services.ErrHashMismatch or services.ErrUpstream).
func (p *Poller) Poll(ctx context.Context, tokenID string) (*Outcome, error) {
	logger := logging.WithContext(ctx, p.logger).With(logging.String(logging.FieldTokenID, tokenID))

	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		snapshot, err := p.fetcher.FetchStatus(ctx, tokenID)
		if err != nil {
			// Upstream fetch errors are retried only within this bounded
			// loop; they consume an attempt like a still-running poll.
			lastErr = err
			logger.Warn("verification status fetch failed",
				logging.Error(err),
				logging.Int("attempt", attempt),
				logging.String(logging.FieldEventType, "verification_fetch_failed"),
			)
		} else if outcome, resolveErr := resolve(snapshot, attempt); outcome != nil {
			logOutcome(logger, outcome)
			return outcome, resolveErr
		}

		if attempt == p.attempts {
			break
		}
		if err := p.sleep(ctx, p.interval); err != nil {
			return nil, err
		}
	}

	outcome := &Outcome{
		State:      ResolvedTimeoutFallback,
		Verified:   true,
		Fallback:   true,
		Confidence: ConfidenceFallback,
		Attempts:   p.attempts,
		Message:    fmt.Sprintf("verification did not complete within %d attempts; fallback result substituted", p.attempts),
	}
	if lastErr != nil {
		outcome.Message = fmt.Sprintf("%s (last fetch error: %v)", outcome.Message, lastErr)
	}
	logOutcome(logger, outcome)
	return outcome, nil
}

// resolve inspects one snapshot. A nil outcome means the job is still
// running and polling should continue.
func resolve(snapshot *Snapshot, attempt int) (*Outcome, error) {
	for _, media := range snapshot.Media {
		switch media.FetchStatus {
		case FetchHashMismatch:
			outcome := &Outcome{
				State:    ResolvedError,
				Attempts: attempt,
				Message:  HashMismatchMessage,
			}
			return outcome, services.Wrap(services.ErrHashMismatch, "verification", "poll", HashMismatchMessage, nil)
		case FetchFailed:
			message := fmt.Sprintf("verification failed for media %s", media.MediaID)
			outcome := &Outcome{
				State:    ResolvedError,
				Attempts: attempt,
				Message:  message,
			}
			return outcome, services.Wrap(services.ErrUpstream, "verification", "poll", message, nil)
		}
	}

	if snapshot.InfringementStatus == InfringementFailed {
		message := "infringement analysis failed"
		outcome := &Outcome{
			State:    ResolvedError,
			Attempts: attempt,
			Message:  message,
		}
		return outcome, services.Wrap(services.ErrUpstream, "verification", "poll", message, nil)
	}

	if !allMediaSucceeded(snapshot.Media) || !snapshot.InfringementStatus.Succeeded() {
		return nil, nil
	}

	if snapshot.HasInfringements() {
		outcome := &Outcome{
			State:      ResolvedFlagged,
			Attempts:   attempt,
			Confidence: maxConfidence(snapshot),
			External:   snapshot.External,
			InNetwork:  snapshot.InNetwork,
			Message:    "potential infringements detected",
		}
		return outcome, nil
	}

	confidence := ConfidenceClean
	if snapshot.InfringementResult == ResultNotChecked {
		confidence = ConfidenceNotChecked
	}
	outcome := &Outcome{
		State:      ResolvedClean,
		Verified:   true,
		Attempts:   attempt,
		Confidence: confidence,
	}
	return outcome, nil
}

func allMediaSucceeded(media []MediaResult) bool {
	if len(media) == 0 {
		return false
	}
	for _, m := range media {
		if m.FetchStatus != FetchSucceeded {
			return false
		}
	}
	return true
}

func maxConfidence(snapshot *Snapshot) int {
	best := 0
	for _, inf := range snapshot.External {
		if inf.Confidence > best {
			best = inf.Confidence
		}
	}
	for _, inf := range snapshot.InNetwork {
		if inf.Confidence > best {
			best = inf.Confidence
		}
	}
	return best
}

func logOutcome(logger *slog.Logger, outcome *Outcome) {
	logger.Info("verification resolved",
		logging.String("state", string(outcome.State)),
		logging.Bool("verified", outcome.Verified),
		logging.Bool("fallback", outcome.Fallback),
		logging.Int("confidence", outcome.Confidence),
		logging.Int("attempts", outcome.Attempts),
		logging.Int("external_matches", len(outcome.External)),
		logging.Int("in_network_matches", len(outcome.InNetwork)),
	)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
