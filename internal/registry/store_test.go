package registry_test

import (
	"context"
	"testing"
	"time"

	"phonogram/internal/registry"
	"phonogram/internal/testsupport"
)

func TestNewWorkDefaults(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	work := testsupport.NewWork(t, store, "Midnight Symphony", "/music/midnight.wav")
	if work.Status != registry.StatusPending {
		t.Fatalf("expected pending status, got %s", work.Status)
	}
	if work.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if work.CreatedAt.IsZero() || work.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps")
	}
}

func TestUpdateWorkRoundTrip(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	work := testsupport.NewWork(t, store, "Midnight Symphony", "/music/midnight.wav")
	work.Status = registry.StatusIngested
	work.ContentHash = "deadbeef"
	work.MediaCID = "bafyexample"
	work.TokenID = "0xabc:42"
	work.MediaURL = "https://gateway.example/content/Qm123"
	work.SetProgressComplete("Ingest", "Media uploaded")

	if err := store.UpdateWork(ctx, work); err != nil {
		t.Fatalf("UpdateWork: %v", err)
	}

	got, err := store.GetWorkByID(ctx, work.ID)
	if err != nil {
		t.Fatalf("GetWorkByID: %v", err)
	}
	if got.Status != registry.StatusIngested {
		t.Fatalf("expected ingested, got %s", got.Status)
	}
	if got.TokenID != "0xabc:42" || got.ContentHash != "deadbeef" || got.MediaCID != "bafyexample" {
		t.Fatalf("identifiers did not round-trip: %+v", got)
	}
	if got.ProgressPercent != 100 {
		t.Fatalf("expected progress 100, got %f", got.ProgressPercent)
	}
}

func TestTokenIDUniqueAcrossWorks(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.NewWork(t, store, "Original", "/music/a.wav")
	first.TokenID = "0xabc:1"
	if err := store.UpdateWork(ctx, first); err != nil {
		t.Fatalf("UpdateWork first: %v", err)
	}

	second := testsupport.NewWork(t, store, "Copycat", "/music/b.wav")
	second.TokenID = "0xabc:1"
	if err := store.UpdateWork(ctx, second); err == nil {
		t.Fatal("expected unique constraint violation on duplicate token id")
	}
}

func TestFindWorkByTokenID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	work := testsupport.NewWork(t, store, "Original", "/music/a.wav")
	work.TokenID = "0xfeed:7"
	if err := store.UpdateWork(ctx, work); err != nil {
		t.Fatalf("UpdateWork: %v", err)
	}

	got, err := store.FindWorkByTokenID(ctx, "0xfeed:7")
	if err != nil {
		t.Fatalf("FindWorkByTokenID: %v", err)
	}
	if got == nil || got.ID != work.ID {
		t.Fatalf("expected work %d, got %+v", work.ID, got)
	}

	missing, err := store.FindWorkByTokenID(ctx, "0xmissing:1")
	if err != nil {
		t.Fatalf("FindWorkByTokenID missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown token, got %+v", missing)
	}
}

func TestNextForStatusesOrdersByCreation(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.NewWork(t, store, "First", "/music/a.wav")
	testsupport.NewWork(t, store, "Second", "/music/b.wav")

	next, err := store.NextForStatuses(ctx, registry.StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest pending work %d, got %+v", first.ID, next)
	}

	none, err := store.NextForStatuses(ctx, registry.StatusScreened)
	if err != nil {
		t.Fatalf("NextForStatuses empty: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for empty status, got %+v", none)
	}
}

func TestRetryFailed(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	work := testsupport.NewWork(t, store, "Broken", "/music/a.wav")
	work.SetFailed("upstream exploded")
	if err := store.UpdateWork(ctx, work); err != nil {
		t.Fatalf("UpdateWork: %v", err)
	}

	count, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 retried work, got %d", count)
	}

	got, err := store.GetWorkByID(ctx, work.ID)
	if err != nil {
		t.Fatalf("GetWorkByID: %v", err)
	}
	if got.Status != registry.StatusPending {
		t.Fatalf("expected pending after retry, got %s", got.Status)
	}
	if got.ErrorMessage != "" {
		t.Fatalf("expected cleared error message, got %q", got.ErrorMessage)
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	stale := testsupport.NewWork(t, store, "Stale", "/music/a.wav")
	staleBeat := time.Now().UTC().Add(-time.Hour)
	stale.Status = registry.StatusScreening
	stale.LastHeartbeat = &staleBeat
	if err := store.UpdateWork(ctx, stale); err != nil {
		t.Fatalf("UpdateWork stale: %v", err)
	}

	fresh := testsupport.NewWork(t, store, "Fresh", "/music/b.wav")
	freshBeat := time.Now().UTC()
	fresh.Status = registry.StatusScreening
	fresh.LastHeartbeat = &freshBeat
	if err := store.UpdateWork(ctx, fresh); err != nil {
		t.Fatalf("UpdateWork fresh: %v", err)
	}

	count, err := store.ReclaimStaleProcessing(ctx, time.Now().UTC().Add(-time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 reclaimed work, got %d", count)
	}

	got, err := store.GetWorkByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetWorkByID: %v", err)
	}
	if got.Status != registry.StatusPending {
		t.Fatalf("expected stale work back to pending, got %s", got.Status)
	}
	untouched, err := store.GetWorkByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetWorkByID fresh: %v", err)
	}
	if untouched.Status != registry.StatusScreening {
		t.Fatalf("fresh work should stay screening, got %s", untouched.Status)
	}
}

func TestHealthCounts(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.NewWork(t, store, "Pending", "/music/a.wav")
	processing := testsupport.NewWork(t, store, "Processing", "/music/b.wav")
	processing.Status = registry.StatusRegistering
	if err := store.UpdateWork(ctx, processing); err != nil {
		t.Fatalf("UpdateWork: %v", err)
	}
	reviewed := testsupport.NewWork(t, store, "Review", "/music/c.wav")
	reviewed.SetReview("matched external brand")
	if err := store.UpdateWork(ctx, reviewed); err != nil {
		t.Fatalf("UpdateWork review: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 3 || health.Pending != 1 || health.Processing != 1 || health.Review != 1 {
		t.Fatalf("unexpected health summary: %+v", health)
	}
}

func TestInsertAssetIdempotencyGuard(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	asset := &registry.IPAsset{
		IPID:                "0x1111111111111111111111111111111111111111",
		VerificationTokenID: "0xabc:42",
		TxHash:              "0xhash",
		LicenseTermsIDs:     []string{"96"},
		Confidence:          90,
	}
	stored, err := store.InsertAsset(ctx, asset)
	if err != nil {
		t.Fatalf("InsertAsset: %v", err)
	}
	if len(stored.LicenseTermsIDs) != 1 || stored.LicenseTermsIDs[0] != "96" {
		t.Fatalf("license terms ids did not round-trip: %+v", stored)
	}

	dup := &registry.IPAsset{
		IPID:                "0x2222222222222222222222222222222222222222",
		VerificationTokenID: "0xabc:42",
	}
	if _, err := store.InsertAsset(ctx, dup); err == nil {
		t.Fatal("expected unique constraint violation on duplicate verification token")
	}

	found, err := store.AssetByVerificationTokenID(ctx, "0xabc:42")
	if err != nil {
		t.Fatalf("AssetByVerificationTokenID: %v", err)
	}
	if found == nil || found.IPID != asset.IPID {
		t.Fatalf("expected original asset, got %+v", found)
	}
}

func TestDerivativeLinks(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	links, err := store.InsertDerivativeLinks(
		ctx,
		"0xchild",
		[]string{"0xparent1", "0xparent2"},
		[]string{"96", "97"},
		"0xtx",
	)
	if err != nil {
		t.Fatalf("InsertDerivativeLinks: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}

	byChild, err := store.LinksByChild(ctx, "0xchild")
	if err != nil {
		t.Fatalf("LinksByChild: %v", err)
	}
	if len(byChild) != 2 {
		t.Fatalf("expected 2 edges for child, got %d", len(byChild))
	}
	if byChild[0].LicenseTermsID != "96" || byChild[1].LicenseTermsID != "97" {
		t.Fatalf("terms ids did not pair positionally: %+v", byChild)
	}

	byParent, err := store.LinksByParent(ctx, "0xparent1")
	if err != nil {
		t.Fatalf("LinksByParent: %v", err)
	}
	if len(byParent) != 1 || byParent[0].ChildIPID != "0xchild" {
		t.Fatalf("unexpected parent edges: %+v", byParent)
	}
}

func TestRevenueClaimsSum(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for _, amount := range []string{"1.50", "2.25"} {
		if _, err := store.InsertClaim(ctx, &registry.RevenueClaim{
			AncestorIPID:    "0xroot",
			Claimer:         "0xclaimer",
			ChildIPIDs:      []string{"0xchild1", "0xchild2"},
			RoyaltyPolicies: []string{"0xpolicy"},
			ClaimedAmount:   amount,
			CurrencyToken:   "0xwip",
		}); err != nil {
			t.Fatalf("InsertClaim %s: %v", amount, err)
		}
	}

	claims, err := store.ClaimsByAncestor(ctx, "0xroot")
	if err != nil {
		t.Fatalf("ClaimsByAncestor: %v", err)
	}
	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}
	first := claims[0]
	if first.Claimer != "0xclaimer" {
		t.Fatalf("claimer not persisted: %+v", first)
	}
	if len(first.ChildIPIDs) != 2 || first.ChildIPIDs[0] != "0xchild1" || first.ChildIPIDs[1] != "0xchild2" {
		t.Fatalf("child ip ids not persisted: %+v", first.ChildIPIDs)
	}
	if len(first.RoyaltyPolicies) != 1 || first.RoyaltyPolicies[0] != "0xpolicy" {
		t.Fatalf("royalty policies not persisted: %+v", first.RoyaltyPolicies)
	}

	total, err := store.SumClaimed(ctx, "0xroot")
	if err != nil {
		t.Fatalf("SumClaimed: %v", err)
	}
	if total.String() != "3.75" {
		t.Fatalf("expected 3.75 claimed, got %s", total)
	}

	empty, err := store.SumClaimed(ctx, "0xother")
	if err != nil {
		t.Fatalf("SumClaimed empty: %v", err)
	}
	if !empty.IsZero() {
		t.Fatalf("expected zero for unknown ancestor, got %s", empty)
	}
}

func TestInsertClaimRejectsNegative(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	_, err := store.InsertClaim(context.Background(), &registry.RevenueClaim{
		AncestorIPID:  "0xroot",
		ClaimedAmount: "-1",
	})
	if err == nil {
		t.Fatal("expected negative amount to be rejected")
	}
}
