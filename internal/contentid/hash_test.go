package contentid_test

import (
	"strings"
	"testing"

	"phonogram/internal/contentid"
)

func TestHashContentDeterministic(t *testing.T) {
	data := []byte("midnight symphony master take 3")
	first := contentid.HashContent(data)
	second := contentid.HashContent(data)
	if first != second {
		t.Fatalf("hash not deterministic: %q vs %q", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
	if first != strings.ToLower(first) {
		t.Fatal("expected lowercase hex digest")
	}
}

func TestHashContentDistinguishesInputs(t *testing.T) {
	a := contentid.HashContent([]byte("take 1"))
	b := contentid.HashContent([]byte("take 2"))
	if a == b {
		t.Fatal("distinct inputs produced identical hashes")
	}
}

func TestHashContentKnownVector(t *testing.T) {
	// sha256("") is a fixed vector.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := contentid.HashContent(nil); got != want {
		t.Fatalf("empty-input digest = %q, want %q", got, want)
	}
}

func TestHashJSONStructOrderStable(t *testing.T) {
	type doc struct {
		Title string `json:"title"`
		Notes string `json:"notes"`
	}
	first, err := contentid.HashJSON(doc{Title: "a", Notes: "b"})
	if err != nil {
		t.Fatalf("HashJSON failed: %v", err)
	}
	second, err := contentid.HashJSON(doc{Title: "a", Notes: "b"})
	if err != nil {
		t.Fatalf("HashJSON failed: %v", err)
	}
	if first != second {
		t.Fatal("struct hash not stable across calls")
	}
}
