package licensing_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"phonogram/internal/licensing"
	"phonogram/internal/services"
	"phonogram/internal/services/ledger"
	"phonogram/internal/testsupport"
)

type fakeUploader struct {
	uploads atomic.Int64
}

func (u *fakeUploader) UploadJSON(ctx context.Context, v any) (string, error) {
	return fmt.Sprintf("Qm%d", u.uploads.Add(1)), nil
}

func (u *fakeUploader) GatewayURL(contentID string) string {
	return "https://gateway.example/content/" + contentID
}

type fakeLedger struct {
	derivativeCalls atomic.Int64
	claimCalls      atomic.Int64
	lastClaim       ledger.ClaimRevenueRequest
	claimResponse   ledger.ClaimRevenueResponse
	lastMint        ledger.MintLicenseTokensRequest
}

func (l *fakeLedger) MintAndRegister(ctx context.Context, request ledger.MintAndRegisterRequest) (*ledger.MintAndRegisterResponse, error) {
	return nil, errors.New("not used")
}

func (l *fakeLedger) RegisterDerivative(ctx context.Context, request ledger.RegisterDerivativeRequest) (*ledger.RegisterDerivativeResponse, error) {
	l.derivativeCalls.Add(1)
	return &ledger.RegisterDerivativeResponse{TxHash: "0xderiv", IPID: "0xchild"}, nil
}

func (l *fakeLedger) ClaimRevenue(ctx context.Context, request ledger.ClaimRevenueRequest) (*ledger.ClaimRevenueResponse, error) {
	l.claimCalls.Add(1)
	l.lastClaim = request
	response := l.claimResponse
	return &response, nil
}

func (l *fakeLedger) MintLicenseTokens(ctx context.Context, request ledger.MintLicenseTokensRequest) (*ledger.MintLicenseTokensResponse, error) {
	l.lastMint = request
	return &ledger.MintLicenseTokensResponse{TxHash: "0xlic", LicenseTokenIDs: []string{"1001"}}, nil
}

func newManager(t *testing.T, chain *fakeLedger) *licensing.Manager {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	return licensing.NewManager(chain, &fakeUploader{}, store, cfg, nil)
}

func TestRegisterDerivativeRecordsLinks(t *testing.T) {
	chain := &fakeLedger{}
	manager := newManager(t, chain)

	result, err := manager.RegisterDerivative(context.Background(), licensing.DerivativeInput{
		Title:           "Midnight Symphony (Remix)",
		ParentIPIDs:     []string{"0xparent1", "0xparent2"},
		LicenseTermsIDs: []string{"96", "97"},
	})
	if err != nil {
		t.Fatalf("RegisterDerivative: %v", err)
	}
	if result.ChildIPID != "0xchild" {
		t.Fatalf("unexpected child ip id: %q", result.ChildIPID)
	}
	if len(result.Links) != 2 {
		t.Fatalf("expected one link per parent, got %d", len(result.Links))
	}
	if result.Links[0].ParentIPID != "0xparent1" || result.Links[0].LicenseTermsID != "96" {
		t.Fatalf("links did not pair terms positionally: %+v", result.Links[0])
	}
	if chain.derivativeCalls.Load() != 1 {
		t.Fatalf("expected 1 ledger call, got %d", chain.derivativeCalls.Load())
	}
}

func TestRegisterDerivativeRequiresParents(t *testing.T) {
	manager := newManager(t, &fakeLedger{})

	_, err := manager.RegisterDerivative(context.Background(), licensing.DerivativeInput{Title: "Remix"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClaimRevenueToleratesEmptyChildLists(t *testing.T) {
	chain := &fakeLedger{claimResponse: ledger.ClaimRevenueResponse{
		TxHash:        "0xclaim",
		ClaimedAmount: "2.5",
		CurrencyToken: "0xwip",
	}}
	manager := newManager(t, chain)

	result, err := manager.ClaimRevenue(context.Background(), licensing.ClaimInput{AncestorIPID: "0xroot"})
	if err != nil {
		t.Fatalf("ClaimRevenue: %v", err)
	}
	if len(chain.lastClaim.ChildIPIDs) != 0 || len(chain.lastClaim.RoyaltyPolicies) != 0 {
		t.Fatalf("empty child lists must pass through untouched: %+v", chain.lastClaim)
	}
	if chain.lastClaim.Claimer == "" {
		t.Fatal("claimer should default to the configured creator")
	}
	if !result.ClaimedAmount.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("unexpected claimed amount: %s", result.ClaimedAmount)
	}
}

func TestPendingRevenueSubtractsClaims(t *testing.T) {
	chain := &fakeLedger{claimResponse: ledger.ClaimRevenueResponse{
		TxHash:        "0xclaim",
		ClaimedAmount: "2.5",
		CurrencyToken: "0xwip",
	}}
	manager := newManager(t, chain)
	ctx := context.Background()

	if _, err := manager.ClaimRevenue(ctx, licensing.ClaimInput{AncestorIPID: "0xroot"}); err != nil {
		t.Fatalf("ClaimRevenue: %v", err)
	}

	pending, err := manager.PendingRevenue(ctx, "0xroot", decimal.RequireFromString("10"))
	if err != nil {
		t.Fatalf("PendingRevenue: %v", err)
	}
	if pending.String() != "7.5" {
		t.Fatalf("expected pending 7.5, got %s", pending)
	}

	// Overclaim reports zero rather than a negative balance.
	floor, err := manager.PendingRevenue(ctx, "0xroot", decimal.RequireFromString("1"))
	if err != nil {
		t.Fatalf("PendingRevenue floor: %v", err)
	}
	if !floor.IsZero() {
		t.Fatalf("expected zero pending, got %s", floor)
	}
}

func TestClaimRevenueRecordsClaimDetails(t *testing.T) {
	chain := &fakeLedger{claimResponse: ledger.ClaimRevenueResponse{
		TxHash:        "0xclaim",
		ClaimedAmount: "4.2",
		CurrencyToken: "0xwip",
	}}
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := licensing.NewManager(chain, &fakeUploader{}, store, cfg, nil)
	ctx := context.Background()

	input := licensing.ClaimInput{
		AncestorIPID:    "0xroot",
		Claimer:         "0xclaimer",
		ChildIPIDs:      []string{"0xchild"},
		RoyaltyPolicies: []string{"0xpolicy"},
	}
	if _, err := manager.ClaimRevenue(ctx, input); err != nil {
		t.Fatalf("ClaimRevenue: %v", err)
	}

	claims, err := store.ClaimsByAncestor(ctx, "0xroot")
	if err != nil {
		t.Fatalf("ClaimsByAncestor: %v", err)
	}
	if len(claims) != 1 {
		t.Fatalf("expected 1 recorded claim, got %d", len(claims))
	}
	claim := claims[0]
	if claim.Claimer != "0xclaimer" {
		t.Fatalf("claimer not recorded: %+v", claim)
	}
	if len(claim.ChildIPIDs) != 1 || claim.ChildIPIDs[0] != "0xchild" {
		t.Fatalf("child ip ids not recorded: %+v", claim.ChildIPIDs)
	}
	if len(claim.RoyaltyPolicies) != 1 || claim.RoyaltyPolicies[0] != "0xpolicy" {
		t.Fatalf("royalty policies not recorded: %+v", claim.RoyaltyPolicies)
	}
	if claim.ClaimedAmount != "4.2" || claim.TxHash != "0xclaim" {
		t.Fatalf("claim amounts not recorded: %+v", claim)
	}
}

func TestClaimRevenueRecordsZeroClaims(t *testing.T) {
	chain := &fakeLedger{claimResponse: ledger.ClaimRevenueResponse{TxHash: "0xclaim", ClaimedAmount: "0"}}
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := licensing.NewManager(chain, &fakeUploader{}, store, cfg, nil)
	ctx := context.Background()

	if _, err := manager.ClaimRevenue(ctx, licensing.ClaimInput{AncestorIPID: "0xroot"}); err != nil {
		t.Fatalf("ClaimRevenue: %v", err)
	}

	claims, err := store.ClaimsByAncestor(ctx, "0xroot")
	if err != nil {
		t.Fatalf("ClaimsByAncestor: %v", err)
	}
	if len(claims) != 1 || claims[0].ClaimedAmount != "0" {
		t.Fatalf("zero claim should still be appended: %+v", claims)
	}

	pending, err := manager.PendingRevenue(ctx, "0xroot", decimal.RequireFromString("10"))
	if err != nil {
		t.Fatalf("PendingRevenue: %v", err)
	}
	if pending.String() != "10" {
		t.Fatalf("zero claim should not reduce pending revenue, got %s", pending)
	}
}

func TestMintLicenseTokensDefaultsReceiver(t *testing.T) {
	chain := &fakeLedger{}
	manager := newManager(t, chain)

	response, err := manager.MintLicenseTokens(context.Background(), licensing.MintTokensInput{
		LicensorIPID:    "0xroot",
		LicenseTermsID:  "96",
		Amount:          1,
		MaxMintingFee:   decimal.NewFromInt(2),
		MaxRevenueShare: 10,
	})
	if err != nil {
		t.Fatalf("MintLicenseTokens: %v", err)
	}
	if len(response.LicenseTokenIDs) != 1 {
		t.Fatalf("unexpected response: %+v", response)
	}
	if chain.lastMint.Receiver == "" {
		t.Fatal("receiver should default to the configured creator")
	}
	if chain.lastMint.MaxMintingFee != "2" || chain.lastMint.MaxRevenueShare != 10 {
		t.Fatalf("bounds not passed through: %+v", chain.lastMint)
	}

	_, err = manager.MintLicenseTokens(context.Background(), licensing.MintTokensInput{LicenseTermsID: "96", Amount: 1})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing licensor, got %v", err)
	}
}
