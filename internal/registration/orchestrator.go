package registration

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"phonogram/internal/config"
	"phonogram/internal/contentid"
	"phonogram/internal/logging"
	"phonogram/internal/registry"
	"phonogram/internal/services"
	"phonogram/internal/services/ledger"
	"phonogram/internal/verification"
)

// GatingPolicy decides what happens when verification flagged the work.
type GatingPolicy int

const (
	// GateSkipFlagged skips the ledger call entirely for flagged works.
	// The pipeline uses this policy.
	GateSkipFlagged GatingPolicy = iota
	// GateRecordOnly registers regardless and merely records the
	// verification outcome on the stored asset.
	GateRecordOnly
)

// Uploader is the storage-gateway surface the orchestrator depends on.
type Uploader interface {
	UploadJSON(ctx context.Context, v any) (string, error)
	GatewayURL(contentID string) string
}

// AssetStore persists completed registrations and answers the pre-mint
// idempotency check.
type AssetStore interface {
	AssetByVerificationTokenID(ctx context.Context, tokenID string) (*registry.IPAsset, error)
	InsertAsset(ctx context.Context, asset *registry.IPAsset) (*registry.IPAsset, error)
}

// AssetInput describes one work ready for registration.
type AssetInput struct {
	WorkID              int64
	Title               string
	Description         string
	MediaURL            string
	MediaHash           string
	MimeType            string
	ImageURL            string
	VerificationTokenID string
	Outcome             *verification.Outcome
	Policy              GatingPolicy
	Flow                Flow
	Extensions          map[string]string
}

// AssetResult carries the ledger-assigned identifiers verbatim, plus flags
// describing how the registration resolved.
type AssetResult struct {
	TxHash            string
	IPID              string
	ChainTokenID      string
	LicenseTermsIDs   []string
	ExplorerURL       string
	MetadataURL       string
	NFTMetadataURL    string
	Verified          bool
	Confidence        int
	Fallback          bool
	Skipped           bool
	AlreadyRegistered bool
}

// Orchestrator sequences one registerAsset invocation: hash, upload, gate,
// mint, persist.
type Orchestrator struct {
	uploader  Uploader
	ledger    ledger.Client
	store     AssetStore
	creator   config.Creator
	licensing config.Licensing
	contract  string
	explorer  string
	logger    *slog.Logger
}

// New builds an orchestrator from the configured collaborators.
func New(uploader Uploader, ledgerClient ledger.Client, store AssetStore, cfg *config.Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		uploader:  uploader,
		ledger:    ledgerClient,
		store:     store,
		creator:   cfg.Creator,
		licensing: cfg.Licensing,
		contract:  cfg.Ledger.SPGContract,
		explorer:  strings.TrimRight(cfg.Ledger.ExplorerBase, "/"),
		logger:    logging.NewComponentLogger(logger, "registration"),
	}
}

// RegisterAsset runs the strictly ordered registration sequence. Steps before
// the ledger call fail fast with no partial state; a ledger failure is never
// retried here because the relayer's transactions are not idempotent.
func (o *Orchestrator) RegisterAsset(ctx context.Context, input AssetInput) (*AssetResult, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, services.Wrap(services.ErrValidation, "registration", "register-asset", "title required", nil)
	}
	if strings.TrimSpace(input.VerificationTokenID) == "" {
		return nil, services.Wrap(services.ErrValidation, "registration", "register-asset", "verification token id required", nil)
	}

	verified, confidence, fallback := summarizeOutcome(input.Outcome)
	if input.Outcome != nil && input.Outcome.Flagged() && input.Policy == GateSkipFlagged {
		o.logger.Info("registration skipped for flagged work",
			logging.String(logging.FieldTokenID, input.VerificationTokenID),
			logging.Int("infringement_confidence", input.Outcome.Confidence),
			logging.String(logging.FieldEventType, "registration_skipped"),
		)
		return &AssetResult{Skipped: true, Confidence: input.Outcome.Confidence}, nil
	}

	// Idempotency guard: a verification token that already produced an
	// asset must not reach the relayer a second time.
	existing, err := o.store.AssetByVerificationTokenID(ctx, input.VerificationTokenID)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "registration", "register-asset", "idempotency lookup", err)
	}
	if existing != nil {
		o.logger.Info("registration already recorded",
			logging.String(logging.FieldTokenID, input.VerificationTokenID),
			logging.String(logging.FieldIPID, existing.IPID),
		)
		result := resultFromAsset(existing)
		result.AlreadyRegistered = true
		return result, nil
	}

	title := DisplayTitle(input.Title)
	ipMetadata := IPMetadata{
		Version:     MetadataVersion,
		Title:       title,
		Description: input.Description,
		Creators: []CreatorShare{{
			Name:                o.creator.Name,
			Address:             o.creator.Address,
			ContributionPercent: o.creator.ContributionPercent,
		}},
		Extensions: input.Extensions,
	}
	if input.MediaURL != "" {
		ipMetadata.Media = []MediaRef{{
			Name:        title,
			URL:         input.MediaURL,
			ContentHash: input.MediaHash,
			MimeType:    input.MimeType,
		}}
	}
	nftMetadata := NFTMetadata{
		Version:     MetadataVersion,
		Name:        title,
		Description: input.Description,
		Image:       input.ImageURL,
		MediaURL:    input.MediaURL,
	}

	ipHash, err := contentid.HashJSON(ipMetadata)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "registration", "register-asset", "hash ip metadata", err)
	}
	nftHash, err := contentid.HashJSON(nftMetadata)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "registration", "register-asset", "hash nft metadata", err)
	}

	ipContentID, nftContentID, err := o.uploadBoth(ctx, ipMetadata, nftMetadata)
	if err != nil {
		return nil, err
	}
	metadataURL := o.uploader.GatewayURL(ipContentID)
	nftMetadataURL := o.uploader.GatewayURL(nftContentID)

	terms := BuildLicenseTerms(input.Flow, o.licensing)

	response, err := o.ledger.MintAndRegister(ctx, ledger.MintAndRegisterRequest{
		SPGContract:     o.contract,
		Recipient:       o.creator.Address,
		MetadataURI:     metadataURL,
		MetadataHash:    "0x" + ipHash,
		NFTMetadataURI:  nftMetadataURL,
		NFTMetadataHash: "0x" + nftHash,
		Terms:           terms,
	})
	if err != nil {
		return nil, err
	}

	asset := &registry.IPAsset{
		WorkID:              input.WorkID,
		IPID:                response.IPID,
		ChainTokenID:        response.TokenID,
		VerificationTokenID: input.VerificationTokenID,
		TxHash:              response.TxHash,
		LicenseTermsIDs:     response.LicenseTermsIDs,
		MetadataURL:         metadataURL,
		NFTMetadataURL:      nftMetadataURL,
		ExplorerURL:         o.explorerURL(response.IPID),
		Verified:            verified,
		Confidence:          confidence,
		Fallback:            fallback,
	}
	stored, err := o.store.InsertAsset(ctx, asset)
	if err != nil {
		// The mint landed on chain; surface the bookkeeping failure with
		// the identifiers so the caller can reconcile instead of remint.
		return nil, services.Wrap(services.ErrUpstream, "registration", "register-asset",
			"asset minted as "+response.IPID+" but persisting the record failed", err)
	}

	o.logger.Info("asset registered",
		logging.String(logging.FieldTokenID, input.VerificationTokenID),
		logging.String(logging.FieldIPID, stored.IPID),
		logging.String("tx_hash", stored.TxHash),
		logging.Bool("fallback", stored.Fallback),
		logging.String(logging.FieldEventType, "asset_registered"),
	)
	return resultFromAsset(stored), nil
}

func (o *Orchestrator) uploadBoth(ctx context.Context, ipMetadata IPMetadata, nftMetadata NFTMetadata) (string, string, error) {
	var (
		wg            sync.WaitGroup
		ipID, nftID   string
		ipErr, nftErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		ipID, ipErr = o.uploader.UploadJSON(ctx, ipMetadata)
	}()
	go func() {
		defer wg.Done()
		nftID, nftErr = o.uploader.UploadJSON(ctx, nftMetadata)
	}()
	wg.Wait()

	if ipErr != nil {
		return "", "", services.Wrap(services.ErrUpstream, "registration", "register-asset", "upload ip metadata", ipErr)
	}
	if nftErr != nil {
		return "", "", services.Wrap(services.ErrUpstream, "registration", "register-asset", "upload nft metadata", nftErr)
	}
	return ipID, nftID, nil
}

func (o *Orchestrator) explorerURL(ipID string) string {
	if o.explorer == "" || ipID == "" {
		return ""
	}
	return o.explorer + "/ipa/" + ipID
}

func summarizeOutcome(outcome *verification.Outcome) (verified bool, confidence int, fallback bool) {
	if outcome == nil {
		return false, 0, false
	}
	return outcome.Verified, outcome.Confidence, outcome.Fallback
}

func resultFromAsset(asset *registry.IPAsset) *AssetResult {
	return &AssetResult{
		TxHash:          asset.TxHash,
		IPID:            asset.IPID,
		ChainTokenID:    asset.ChainTokenID,
		LicenseTermsIDs: asset.LicenseTermsIDs,
		ExplorerURL:     asset.ExplorerURL,
		MetadataURL:     asset.MetadataURL,
		NFTMetadataURL:  asset.NFTMetadataURL,
		Verified:        asset.Verified,
		Confidence:      asset.Confidence,
		Fallback:        asset.Fallback,
	}
}
