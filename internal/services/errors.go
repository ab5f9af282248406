package services

import (
	"errors"
	"fmt"
	"strings"

	"phonogram/internal/registry"
)

var (
	// ErrValidation marks malformed input detected before any network call.
	// Never retried.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable collaborator configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a missing record or resource.
	ErrNotFound = errors.New("not found")
	// ErrTimeout marks an exhausted deadline or poll budget.
	ErrTimeout = errors.New("timeout")
	// ErrUpstream marks a non-2xx response from a collaborator.
	ErrUpstream = errors.New("upstream error")
	// ErrHashMismatch marks the fingerprint service reporting that uploaded
	// content differs from what was fingerprinted. Subtype of ErrUpstream.
	ErrHashMismatch = fmt.Errorf("hash mismatch: %w", ErrUpstream)
	// ErrLedger marks a failed on-chain call. Never auto-retried: ledger
	// transactions are not idempotent and a blind retry risks double-minting.
	ErrLedger = errors.New("ledger error")
)

// UpstreamError carries the status and body of a non-2xx collaborator
// response. It unwraps to ErrUpstream for classification.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s returned %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Service, e.Status, body)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later status classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrUpstream
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a stage error to the work status the workflow manager
// should persist after the stage fails. Validation-class failures park the
// work for human review; everything else fails it outright.
func FailureStatus(err error) registry.Status {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return registry.StatusReview
	default:
		return registry.StatusFailed
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
