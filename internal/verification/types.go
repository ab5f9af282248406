package verification

import (
	"errors"
	"fmt"
	"strings"
)

// TrustReason explains why a media item was accepted without fingerprinting.
type TrustReason string

const (
	TrustNone            TrustReason = ""
	TrustTrustedPlatform TrustReason = "trusted_platform"
	TrustNoLicenses      TrustReason = "no_licenses"
)

// FetchStatus is the per-media ingestion state reported by the
// fingerprinting service.
type FetchStatus string

const (
	FetchQueued       FetchStatus = "queued"
	FetchRunning      FetchStatus = "running"
	FetchSucceeded    FetchStatus = "succeeded"
	FetchFailed       FetchStatus = "failed"
	FetchHashMismatch FetchStatus = "hash_mismatch"
)

// Terminal reports whether the fetch status will not change on re-poll.
func (s FetchStatus) Terminal() bool {
	switch s {
	case FetchSucceeded, FetchFailed, FetchHashMismatch:
		return true
	default:
		return false
	}
}

// InfringementStatus is the asset-level analysis state.
type InfringementStatus string

const (
	InfringementNotStarted InfringementStatus = "not_started"
	InfringementRunning    InfringementStatus = "running"
	InfringementSucceeded  InfringementStatus = "succeeded"
	// InfringementCompleted is an alternate terminal-success spelling some
	// service versions report. Treated identically to succeeded.
	InfringementCompleted InfringementStatus = "completed"
	InfringementFailed    InfringementStatus = "failed"
)

// Succeeded reports whether the analysis reached terminal success.
func (s InfringementStatus) Succeeded() bool {
	return s == InfringementSucceeded || s == InfringementCompleted
}

// InfringementResult is the asset-level verdict once analysis succeeds.
type InfringementResult string

const (
	ResultNotChecked InfringementResult = "not_checked"
	ResultClean      InfringementResult = "clean"
	ResultMatched    InfringementResult = "matched"
)

// MediaItem is one media entry submitted for fingerprinting. Immutable once
// submitted; MediaID must be unique within a Request.
type MediaItem struct {
	MediaID     string      `json:"media_id"`
	URL         string      `json:"url"`
	ContentHash string      `json:"hash,omitempty"`
	TrustReason TrustReason `json:"trust_reason,omitempty"`
}

// RegistrationTx records where the asset registration was (or will be)
// anchored on chain.
type RegistrationTx struct {
	Hash        string `json:"hash"`
	BlockNumber int64  `json:"block_number"`
	Timestamp   int64  `json:"timestamp"`
	Chain       string `json:"chain"`
}

// LicenseParent names a parent token the submitted asset derives from.
type LicenseParent struct {
	TokenID   string `json:"token_id"`
	LicenseID string `json:"license_id,omitempty"`
}

// Request is a token-registration submission to the fingerprinting service.
// Immutable once created; resubmission requires a fresh token id.
type Request struct {
	TokenID        string            `json:"id"`
	RegistrationTx RegistrationTx    `json:"registration_tx"`
	CreatorID      string            `json:"creator_id"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Media          []MediaItem       `json:"media"`
	LicenseParents []LicenseParent   `json:"license_parents,omitempty"`
}

// Validate checks the request invariants before the first network call.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.TokenID) == "" {
		return errors.New("token id must not be empty")
	}
	if strings.TrimSpace(r.CreatorID) == "" {
		return errors.New("creator id must not be empty")
	}
	if len(r.Media) == 0 {
		return errors.New("at least one media item is required")
	}
	seen := make(map[string]struct{}, len(r.Media))
	for _, media := range r.Media {
		id := strings.TrimSpace(media.MediaID)
		if id == "" {
			return errors.New("media id must not be empty")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate media id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// MediaResult is the per-media verification status.
type MediaResult struct {
	MediaID     string      `json:"media_id"`
	FetchStatus FetchStatus `json:"fetch_status"`
	TrustReason TrustReason `json:"trust_reason,omitempty"`
}

// ExternalInfringement is a match against an out-of-network brand catalog.
type ExternalInfringement struct {
	BrandID    string `json:"brand_id"`
	BrandName  string `json:"brand_name"`
	Confidence int    `json:"confidence"`
	Authorized bool   `json:"authorized"`
}

// InNetworkInfringement is a match against another registered token.
type InNetworkInfringement struct {
	TokenID    string `json:"token_id"`
	Confidence int    `json:"confidence"`
	Licensed   bool   `json:"licensed"`
}

// Snapshot is one fetch of the verification state for a token. Mutated only
// by re-fetching from the service, never written locally.
type Snapshot struct {
	Media              []MediaResult           `json:"media"`
	InfringementStatus InfringementStatus      `json:"infringement_status"`
	InfringementResult InfringementResult      `json:"infringement_result"`
	External           []ExternalInfringement  `json:"external_infringements"`
	InNetwork          []InNetworkInfringement `json:"in_network_infringements"`
}

// HasInfringements reports whether any match was found.
func (s *Snapshot) HasInfringements() bool {
	return len(s.External) > 0 || len(s.InNetwork) > 0
}
