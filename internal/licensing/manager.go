package licensing

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"phonogram/internal/config"
	"phonogram/internal/contentid"
	"phonogram/internal/logging"
	"phonogram/internal/registration"
	"phonogram/internal/registry"
	"phonogram/internal/services"
	"phonogram/internal/services/ledger"
)

// LinkStore is the registry surface the manager records against.
type LinkStore interface {
	InsertDerivativeLinks(ctx context.Context, childIPID string, parentIPIDs, termsIDs []string, txHash string) ([]*registry.DerivativeLink, error)
	InsertClaim(ctx context.Context, claim *registry.RevenueClaim) (*registry.RevenueClaim, error)
	SumClaimed(ctx context.Context, ancestorIPID string) (decimal.Decimal, error)
}

// Manager sequences derivative and royalty operations.
type Manager struct {
	ledger    ledger.Client
	uploader  registration.Uploader
	store     LinkStore
	creator   config.Creator
	licensing config.Licensing
	contract  string
	logger    *slog.Logger
}

// NewManager builds a licensing manager from the configured collaborators.
func NewManager(ledgerClient ledger.Client, uploader registration.Uploader, store LinkStore, cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		ledger:    ledgerClient,
		uploader:  uploader,
		store:     store,
		creator:   cfg.Creator,
		licensing: cfg.Licensing,
		contract:  cfg.Ledger.SPGContract,
		logger:    logging.NewComponentLogger(logger, "licensing"),
	}
}

// DerivativeInput describes a child work derived from registered parents.
type DerivativeInput struct {
	Title           string
	Description     string
	MediaURL        string
	ParentIPIDs     []string
	LicenseTermsIDs []string
	Flow            registration.Flow
}

// DerivativeResult carries the child identifiers and recorded parent edges.
type DerivativeResult struct {
	ChildIPID string
	TxHash    string
	Links     []*registry.DerivativeLink
}

// RegisterDerivative registers a child asset under its parents' license
// terms and records one DerivativeLink per parent.
func (m *Manager) RegisterDerivative(ctx context.Context, input DerivativeInput) (*DerivativeResult, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, services.Wrap(services.ErrValidation, "licensing", "register-derivative", "title required", nil)
	}
	if len(input.ParentIPIDs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "licensing", "register-derivative", "at least one parent ip id required", nil)
	}

	title := registration.DisplayTitle(input.Title)
	metadata := registration.IPMetadata{
		Version:     registration.MetadataVersion,
		Title:       title,
		Description: input.Description,
		Creators: []registration.CreatorShare{{
			Name:                m.creator.Name,
			Address:             m.creator.Address,
			ContributionPercent: m.creator.ContributionPercent,
		}},
	}
	if input.MediaURL != "" {
		metadata.Media = []registration.MediaRef{{Name: title, URL: input.MediaURL}}
	}
	nftMetadata := registration.NFTMetadata{
		Version:     registration.MetadataVersion,
		Name:        title,
		Description: input.Description,
		MediaURL:    input.MediaURL,
	}

	metadataHash, err := contentid.HashJSON(metadata)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "licensing", "register-derivative", "hash metadata", err)
	}
	nftHash, err := contentid.HashJSON(nftMetadata)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "licensing", "register-derivative", "hash nft metadata", err)
	}

	metadataID, err := m.uploader.UploadJSON(ctx, metadata)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "licensing", "register-derivative", "upload metadata", err)
	}
	nftMetadataID, err := m.uploader.UploadJSON(ctx, nftMetadata)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "licensing", "register-derivative", "upload nft metadata", err)
	}

	response, err := m.ledger.RegisterDerivative(ctx, ledger.RegisterDerivativeRequest{
		SPGContract:     m.contract,
		Recipient:       m.creator.Address,
		MetadataURI:     m.uploader.GatewayURL(metadataID),
		MetadataHash:    "0x" + metadataHash,
		NFTMetadataURI:  m.uploader.GatewayURL(nftMetadataID),
		NFTMetadataHash: "0x" + nftHash,
		ParentIPIDs:     input.ParentIPIDs,
		LicenseTermsIDs: input.LicenseTermsIDs,
		Terms:           registration.BuildLicenseTerms(input.Flow, m.licensing),
	})
	if err != nil {
		return nil, err
	}

	links, err := m.store.InsertDerivativeLinks(ctx, response.IPID, input.ParentIPIDs, input.LicenseTermsIDs, response.TxHash)
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, "licensing", "register-derivative",
			"derivative registered as "+response.IPID+" but recording links failed", err)
	}

	m.logger.Info("derivative registered",
		logging.String(logging.FieldIPID, response.IPID),
		logging.Int("parents", len(input.ParentIPIDs)),
		logging.String(logging.FieldEventType, "derivative_registered"),
	)
	return &DerivativeResult{ChildIPID: response.IPID, TxHash: response.TxHash, Links: links}, nil
}

// ClaimInput describes one royalty claim against an ancestor asset. Empty
// ChildIPIDs and RoyaltyPolicies are valid and claim against the ancestor
// alone.
type ClaimInput struct {
	AncestorIPID    string
	Claimer         string
	ChildIPIDs      []string
	RoyaltyPolicies []string
	CurrencyTokens  []string
}

// ClaimResult reports what one claim call pulled.
type ClaimResult struct {
	TxHash        string
	ClaimedAmount decimal.Decimal
	CurrencyToken string
}

// ClaimRevenue pulls claimable royalties and appends the claim to the local
// ledger of claims.
func (m *Manager) ClaimRevenue(ctx context.Context, input ClaimInput) (*ClaimResult, error) {
	if strings.TrimSpace(input.AncestorIPID) == "" {
		return nil, services.Wrap(services.ErrValidation, "licensing", "claim-revenue", "ancestor ip id required", nil)
	}
	claimer := input.Claimer
	if claimer == "" {
		claimer = m.creator.Address
	}
	currencies := input.CurrencyTokens
	if len(currencies) == 0 && m.licensing.CurrencyToken != "" {
		currencies = []string{m.licensing.CurrencyToken}
	}

	response, err := m.ledger.ClaimRevenue(ctx, ledger.ClaimRevenueRequest{
		AncestorIPID:    input.AncestorIPID,
		Claimer:         claimer,
		ChildIPIDs:      input.ChildIPIDs,
		RoyaltyPolicies: input.RoyaltyPolicies,
		CurrencyTokens:  currencies,
	})
	if err != nil {
		return nil, err
	}

	amount := decimal.Zero
	if response.ClaimedAmount != "" {
		amount, err = decimal.NewFromString(response.ClaimedAmount)
		if err != nil {
			return nil, services.Wrap(services.ErrUpstream, "licensing", "claim-revenue",
				"relayer returned unparseable amount "+response.ClaimedAmount, err)
		}
	}

	if _, err := m.store.InsertClaim(ctx, &registry.RevenueClaim{
		AncestorIPID:    input.AncestorIPID,
		Claimer:         claimer,
		ChildIPIDs:      input.ChildIPIDs,
		RoyaltyPolicies: input.RoyaltyPolicies,
		ClaimedAmount:   amount.String(),
		CurrencyToken:   response.CurrencyToken,
		TxHash:          response.TxHash,
	}); err != nil {
		return nil, services.Wrap(services.ErrUpstream, "licensing", "claim-revenue",
			"claim landed as "+response.TxHash+" but recording it failed", err)
	}

	m.logger.Info("revenue claimed",
		logging.String(logging.FieldIPID, input.AncestorIPID),
		logging.String("claimed_amount", amount.String()),
		logging.String(logging.FieldEventType, "revenue_claimed"),
	)
	return &ClaimResult{TxHash: response.TxHash, ClaimedAmount: amount, CurrencyToken: response.CurrencyToken}, nil
}

// PendingRevenue computes what remains claimable for an ancestor given its
// total earned revenue: totalEarned minus the sum of recorded claims.
func (m *Manager) PendingRevenue(ctx context.Context, ancestorIPID string, totalEarned decimal.Decimal) (decimal.Decimal, error) {
	claimed, err := m.store.SumClaimed(ctx, ancestorIPID)
	if err != nil {
		return decimal.Zero, err
	}
	pending := totalEarned.Sub(claimed)
	if pending.IsNegative() {
		return decimal.Zero, nil
	}
	return pending, nil
}

// MintTokensInput describes one license-token mint. Receiver defaults to the
// configured creator address; MaxMintingFee and MaxRevenueShare bound what the
// relayer may accept on the caller's behalf and are passed through verbatim.
type MintTokensInput struct {
	LicensorIPID    string
	LicenseTermsID  string
	Receiver        string
	Amount          int
	MaxMintingFee   decimal.Decimal
	MaxRevenueShare int
}

// MintLicenseTokens mints license tokens against a registered asset.
func (m *Manager) MintLicenseTokens(ctx context.Context, input MintTokensInput) (*ledger.MintLicenseTokensResponse, error) {
	if strings.TrimSpace(input.LicensorIPID) == "" {
		return nil, services.Wrap(services.ErrValidation, "licensing", "mint-license-tokens", "licensor ip id required", nil)
	}
	receiver := input.Receiver
	if receiver == "" {
		receiver = m.creator.Address
	}
	request := ledger.MintLicenseTokensRequest{
		LicensorIPID:    input.LicensorIPID,
		LicenseTermsID:  input.LicenseTermsID,
		Amount:          input.Amount,
		Receiver:        receiver,
		MaxRevenueShare: input.MaxRevenueShare,
	}
	if input.MaxMintingFee.IsPositive() {
		request.MaxMintingFee = input.MaxMintingFee.String()
	}
	return m.ledger.MintLicenseTokens(ctx, request)
}
