package ledger

import "context"

// LicenseTerms are the programmable license parameters attached to a mint.
type LicenseTerms struct {
	Transferable        bool   `json:"transferable"`
	DefaultMintingFee   int64  `json:"defaultMintingFee"`
	CommercialUse       bool   `json:"commercialUse"`
	CommercialRevShare  int64  `json:"commercialRevShare"`
	DerivativesAllowed  bool   `json:"derivativesAllowed"`
	DerivativesApproval bool   `json:"derivativesApproval"`
	RoyaltyPolicy       string `json:"royaltyPolicy,omitempty"`
	Currency            string `json:"currency,omitempty"`
}

// MintAndRegisterRequest mints an NFT and registers it as an IP asset in a
// single relayer call.
type MintAndRegisterRequest struct {
	SPGContract     string       `json:"spgNftContract"`
	Recipient       string       `json:"recipient"`
	MetadataURI     string       `json:"ipMetadataURI"`
	MetadataHash    string       `json:"ipMetadataHash"`
	NFTMetadataURI  string       `json:"nftMetadataURI"`
	NFTMetadataHash string       `json:"nftMetadataHash"`
	Terms           LicenseTerms `json:"licenseTermsData"`
}

// MintAndRegisterResponse carries the chain identifiers assigned to a new
// asset. All fields pass through verbatim from the relayer.
type MintAndRegisterResponse struct {
	TxHash          string   `json:"txHash"`
	IPID            string   `json:"ipId"`
	TokenID         string   `json:"tokenId"`
	LicenseTermsIDs []string `json:"licenseTermsIds"`
}

// RegisterDerivativeRequest links an already registered child asset to its
// parents under the given license terms.
type RegisterDerivativeRequest struct {
	SPGContract     string       `json:"spgNftContract"`
	Recipient       string       `json:"recipient"`
	MetadataURI     string       `json:"ipMetadataURI"`
	MetadataHash    string       `json:"ipMetadataHash"`
	NFTMetadataURI  string       `json:"nftMetadataURI"`
	NFTMetadataHash string       `json:"nftMetadataHash"`
	ParentIPIDs     []string     `json:"parentIpIds"`
	LicenseTermsIDs []string     `json:"licenseTermsIds"`
	Terms           LicenseTerms `json:"licenseTermsData"`
}

// RegisterDerivativeResponse carries the child asset identifiers.
type RegisterDerivativeResponse struct {
	TxHash  string `json:"txHash"`
	IPID    string `json:"ipId"`
	TokenID string `json:"tokenId"`
}

// ClaimRevenueRequest pulls claimable royalties up to an ancestor asset.
// ChildIPIDs and RoyaltyPolicies may be empty; the relayer then claims on
// the ancestor's own vault alone.
type ClaimRevenueRequest struct {
	AncestorIPID    string   `json:"ancestorIpId"`
	Claimer         string   `json:"claimer"`
	ChildIPIDs      []string `json:"childIpIds"`
	RoyaltyPolicies []string `json:"royaltyPolicies"`
	CurrencyTokens  []string `json:"currencyTokens"`
}

// ClaimRevenueResponse reports the amount pulled in one claim call.
type ClaimRevenueResponse struct {
	TxHash        string `json:"txHash"`
	ClaimedAmount string `json:"claimedAmount"`
	CurrencyToken string `json:"currencyToken"`
}

// MintLicenseTokensRequest mints transferable license tokens against a
// licensor asset.
type MintLicenseTokensRequest struct {
	LicensorIPID    string `json:"licensorIpId"`
	LicenseTermsID  string `json:"licenseTermsId"`
	Amount          int    `json:"amount"`
	Receiver        string `json:"receiver"`
	MaxMintingFee   string `json:"maxMintingFee,omitempty"`
	MaxRevenueShare int    `json:"maxRevenueShare,omitempty"`
}

// MintLicenseTokensResponse reports the minted token ids.
type MintLicenseTokensResponse struct {
	TxHash          string   `json:"txHash"`
	LicenseTokenIDs []string `json:"licenseTokenIds"`
}

// Client is the ledger relayer surface the pipeline depends on. The HTTP
// implementation lives in this package; tests substitute fakes.
type Client interface {
	MintAndRegister(ctx context.Context, request MintAndRegisterRequest) (*MintAndRegisterResponse, error)
	RegisterDerivative(ctx context.Context, request RegisterDerivativeRequest) (*RegisterDerivativeResponse, error)
	ClaimRevenue(ctx context.Context, request ClaimRevenueRequest) (*ClaimRevenueResponse, error)
	MintLicenseTokens(ctx context.Context, request MintLicenseTokensRequest) (*MintLicenseTokensResponse, error)
}
