package contentid_test

import (
	"strconv"
	"strings"
	"testing"

	"phonogram/internal/contentid"
)

func TestChainTokenID(t *testing.T) {
	got := contentid.ChainTokenID("0xABCdef0123456789ABCDEF0123456789abcdef01", 42)
	want := "0xabcdef0123456789abcdef0123456789abcdef01:42"
	if got != want {
		t.Fatalf("ChainTokenID = %q, want %q", got, want)
	}
}

func TestSyntheticTokenIDDeterministic(t *testing.T) {
	seed := contentid.TokenSeed{
		Creator:   "0xabc0000000000000000000000000000000000def",
		Media:     []contentid.SeedMedia{{MediaID: "m1", URL: "https://x"}},
		Timestamp: 1700000000,
	}
	first, err := contentid.SyntheticTokenID(seed)
	if err != nil {
		t.Fatalf("SyntheticTokenID failed: %v", err)
	}
	second, err := contentid.SyntheticTokenID(seed)
	if err != nil {
		t.Fatalf("SyntheticTokenID failed: %v", err)
	}
	if first != second {
		t.Fatalf("derivation not deterministic: %q vs %q", first, second)
	}
}

func TestSyntheticTokenIDShape(t *testing.T) {
	seeds := []contentid.TokenSeed{
		{Creator: "0x1", Timestamp: 1},
		{Creator: "0x2", Media: []contentid.SeedMedia{{MediaID: "a", URL: "u"}}, Timestamp: 99},
		{Creator: "0x3", Media: []contentid.SeedMedia{{MediaID: "a", URL: "u"}, {MediaID: "b", URL: "v"}}, Timestamp: 1700000000},
	}
	for _, seed := range seeds {
		id, err := contentid.SyntheticTokenID(seed)
		if err != nil {
			t.Fatalf("SyntheticTokenID failed: %v", err)
		}
		address, suffix, ok := strings.Cut(id, ":")
		if !ok {
			t.Fatalf("token id %q missing separator", id)
		}
		if !strings.HasPrefix(address, "0x") || len(address) != 42 {
			t.Fatalf("unexpected synthetic address %q", address)
		}
		n, err := strconv.ParseUint(suffix, 10, 64)
		if err != nil {
			t.Fatalf("parse suffix %q: %v", suffix, err)
		}
		if n < 1 || n > 999999 {
			t.Fatalf("suffix %d out of [1, 999999]", n)
		}
	}
}

func TestSyntheticTokenIDVariesWithSeed(t *testing.T) {
	base := contentid.TokenSeed{Creator: "0xabc", Timestamp: 1700000000}
	other := contentid.TokenSeed{Creator: "0xabc", Timestamp: 1700000001}
	first, err := contentid.SyntheticTokenID(base)
	if err != nil {
		t.Fatalf("SyntheticTokenID failed: %v", err)
	}
	second, err := contentid.SyntheticTokenID(other)
	if err != nil {
		t.Fatalf("SyntheticTokenID failed: %v", err)
	}
	if first == second {
		t.Fatal("different seeds produced identical token ids")
	}
}

func TestCIDv1Stable(t *testing.T) {
	data := []byte("phonogram payload")
	first, err := contentid.CIDv1(data)
	if err != nil {
		t.Fatalf("CIDv1 failed: %v", err)
	}
	second, err := contentid.CIDv1(data)
	if err != nil {
		t.Fatalf("CIDv1 failed: %v", err)
	}
	if first != second {
		t.Fatal("cid not stable")
	}
	if !strings.HasPrefix(first, "b") {
		t.Fatalf("expected base32 CIDv1, got %q", first)
	}
}
