package registry

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a work moving through the pipeline.
type Status string

const (
	StatusPending     Status = "pending"
	StatusIngesting   Status = "ingesting"
	StatusIngested    Status = "ingested"
	StatusScreening   Status = "screening"
	StatusScreened    Status = "screened"
	StatusRegistering Status = "registering"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusReview      Status = "review"
)

// DaemonStopReason is the error message set when works are failed due to
// daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusIngesting,
	StatusIngested,
	StatusScreening,
	StatusScreened,
	StatusRegistering,
	StatusCompleted,
	StatusFailed,
	StatusReview,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusIngesting:   {},
	StatusScreening:   {},
	StatusRegistering: {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// Work is one audio work persisted in SQLite as it moves through ingest,
// screening, and registration.
type Work struct {
	ID              int64
	Title           string
	CreatorName     string
	CreatorAddress  string
	MediaPath       string
	MediaURL        string
	MediaContentID  string
	ContentHash     string
	MediaCID        string
	TokenID         string
	Status          Status
	ErrorMessage    string
	NeedsReview     bool
	ReviewReason    string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	MetadataJSON    string
	OutcomeJSON     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastHeartbeat   *time.Time
}

// IsProcessing returns true when the work is in an in-flight stage.
func (w Work) IsProcessing() bool {
	_, ok := processingStatuses[w.Status]
	return ok
}

// SetProgress updates all three progress fields atomically.
func (w *Work) SetProgress(stage, message string, percent float64) {
	w.ProgressStage = stage
	w.ProgressMessage = message
	w.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (w *Work) SetProgressComplete(stage, message string) {
	w.SetProgress(stage, message, 100)
}

// SetFailed marks the work as failed with the given error message.
// Clears the heartbeat and resets progress.
func (w *Work) SetFailed(message string) {
	w.Status = StatusFailed
	w.ErrorMessage = message
	w.ProgressPercent = 0
	w.ProgressMessage = message
	w.LastHeartbeat = nil
	w.ProgressStage = "Failed"
}

// SetReview parks the work for manual intervention with the given reason.
func (w *Work) SetReview(reason string) {
	w.Status = StatusReview
	w.NeedsReview = true
	w.ReviewReason = reason
	w.LastHeartbeat = nil
}

// IPAsset is a completed on-chain registration. VerificationTokenID is
// unique so a second registration attempt for the same verified content
// surfaces as a constraint violation rather than a duplicate mint.
type IPAsset struct {
	ID                  int64
	WorkID              int64
	IPID                string
	ChainTokenID        string
	VerificationTokenID string
	TxHash              string
	LicenseTermsIDs     []string
	MetadataURL         string
	NFTMetadataURL      string
	ExplorerURL         string
	Verified            bool
	Confidence          int
	Fallback            bool
	CreatedAt           time.Time
}

// DerivativeLink records one parent edge of a derivative registration.
type DerivativeLink struct {
	ID             int64
	ChildIPID      string
	ParentIPID     string
	LicenseTermsID string
	TxHash         string
	CreatedAt      time.Time
}

// RevenueClaim is one append-only royalty claim against an ancestor asset.
// ClaimedAmount is stored as decimal text to avoid float drift.
type RevenueClaim struct {
	ID              int64
	AncestorIPID    string
	Claimer         string
	ChildIPIDs      []string
	RoyaltyPolicies []string
	ClaimedAmount   string
	CurrencyToken   string
	TxHash          string
	CreatedAt       time.Time
}

// HealthSummary describes aggregated work counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Review     int
	Completed  int
}

// DatabaseHealth captures diagnostic information about the registry database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	MissingTables    []string
	IntegrityCheck   bool
	TotalWorks       int
	Error            string
}
