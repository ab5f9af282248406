package ledger_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"phonogram/internal/services"
	"phonogram/internal/services/ledger"
)

func TestMintAndRegister(t *testing.T) {
	var gotPath string
	var gotRequest ledger.MintAndRegisterRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotRequest)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
            "txHash": "0xmint",
            "ipId": "0x1111111111111111111111111111111111111111",
            "tokenId": "7",
            "licenseTermsIds": ["96"]
        }`))
	}))
	defer server.Close()

	client, err := ledger.New("secret", server.URL)
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}

	response, err := client.MintAndRegister(context.Background(), ledger.MintAndRegisterRequest{
		SPGContract: "0xcontract",
		Recipient:   "0xcreator",
		MetadataURI: "https://gateway.example/content/Qm1",
		Terms:       ledger.LicenseTerms{CommercialUse: true, CommercialRevShare: 5, DefaultMintingFee: 1},
	})
	if err != nil {
		t.Fatalf("MintAndRegister: %v", err)
	}
	if gotPath != "/assets" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotRequest.Terms.CommercialRevShare != 5 {
		t.Fatalf("terms did not round-trip: %+v", gotRequest.Terms)
	}
	if response.IPID != "0x1111111111111111111111111111111111111111" {
		t.Fatalf("ipId not passed through verbatim: %q", response.IPID)
	}
	if response.TxHash != "0xmint" || len(response.LicenseTermsIDs) != 1 || response.LicenseTermsIDs[0] != "96" {
		t.Fatalf("response not passed through verbatim: %+v", response)
	}
}

func TestMintAndRegisterMissingIPID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"txHash": "0xmint"}`))
	}))
	defer server.Close()

	client, err := ledger.New("secret", server.URL)
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	_, err = client.MintAndRegister(context.Background(), ledger.MintAndRegisterRequest{})
	if !errors.Is(err, services.ErrLedger) {
		t.Fatalf("expected ErrLedger for empty ipId, got %v", err)
	}
}

func TestLedgerErrorsTagErrLedger(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("relayer down"))
	}))
	defer server.Close()

	client, err := ledger.New("secret", server.URL)
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	_, err = client.MintAndRegister(context.Background(), ledger.MintAndRegisterRequest{})
	if !errors.Is(err, services.ErrLedger) {
		t.Fatalf("expected ErrLedger, got %v", err)
	}
	// Failed mints park as failed rather than review.
	var upstream *services.UpstreamError
	if !errors.As(err, &upstream) || upstream.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected upstream detail, got %v", err)
	}
}

func TestRegisterDerivativeRequiresParents(t *testing.T) {
	client, err := ledger.New("secret", "http://127.0.0.1:0")
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	_, err = client.RegisterDerivative(context.Background(), ledger.RegisterDerivativeRequest{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClaimRevenueToleratesEmptyChildLists(t *testing.T) {
	var gotRequest ledger.ClaimRevenueRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotRequest)
		_, _ = w.Write([]byte(`{"txHash": "0xclaim", "claimedAmount": "2.5", "currencyToken": "0xwip"}`))
	}))
	defer server.Close()

	client, err := ledger.New("secret", server.URL)
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	response, err := client.ClaimRevenue(context.Background(), ledger.ClaimRevenueRequest{
		AncestorIPID: "0xroot",
		Claimer:      "0xroot",
	})
	if err != nil {
		t.Fatalf("ClaimRevenue: %v", err)
	}
	if len(gotRequest.ChildIPIDs) != 0 || len(gotRequest.RoyaltyPolicies) != 0 {
		t.Fatalf("expected empty child lists to pass through: %+v", gotRequest)
	}
	if response.ClaimedAmount != "2.5" {
		t.Fatalf("unexpected claimed amount: %q", response.ClaimedAmount)
	}
}

func TestMintLicenseTokensDefaultsAmount(t *testing.T) {
	var gotRequest ledger.MintLicenseTokensRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotRequest)
		_, _ = w.Write([]byte(`{"txHash": "0xlic", "licenseTokenIds": ["1001"]}`))
	}))
	defer server.Close()

	client, err := ledger.New("secret", server.URL)
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	response, err := client.MintLicenseTokens(context.Background(), ledger.MintLicenseTokensRequest{
		LicensorIPID:   "0xroot",
		LicenseTermsID: "96",
		Receiver:       "0xbuyer",
	})
	if err != nil {
		t.Fatalf("MintLicenseTokens: %v", err)
	}
	if gotRequest.Amount != 1 {
		t.Fatalf("expected default amount 1, got %d", gotRequest.Amount)
	}
	if len(response.LicenseTokenIDs) != 1 || response.LicenseTokenIDs[0] != "1001" {
		t.Fatalf("unexpected license token ids: %+v", response)
	}
}
