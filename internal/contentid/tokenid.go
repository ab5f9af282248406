package contentid

import (
	"fmt"
	"strconv"
	"strings"
)

// SeedMedia is one media entry in the synthetic token-id seed.
type SeedMedia struct {
	MediaID string `json:"media_id"`
	URL     string `json:"url"`
}

// TokenSeed is the canonical input for synthetic token-id derivation. Field
// order is part of the derivation and must not change.
type TokenSeed struct {
	Creator   string      `json:"creator"`
	Media     []SeedMedia `json:"media"`
	Timestamp int64       `json:"timestamp"`
}

// ChainTokenID derives a token id for an asset with a known contract address
// and on-chain numeric id.
func ChainTokenID(contractAddress string, onChainID int64) string {
	return strings.ToLower(strings.TrimSpace(contractAddress)) + ":" + strconv.FormatInt(onChainID, 10)
}

// SyntheticTokenID derives a token id for an off-chain or pre-mint asset.
//
// The derivation is bit-exact and shared with systems that already hold ids
// produced this way: h = sha256(json(seed)); the synthetic address is
// "0x" + h[0:40]; the numeric suffix is parseHexUint(h[40:48]) % 999999 + 1,
// always in [1, 999999].
func SyntheticTokenID(seed TokenSeed) (string, error) {
	digest, err := HashJSON(seed)
	if err != nil {
		return "", fmt.Errorf("hash token seed: %w", err)
	}
	address := "0x" + digest[0:40]
	window, err := strconv.ParseUint(digest[40:48], 16, 64)
	if err != nil {
		return "", fmt.Errorf("parse digest window: %w", err)
	}
	n := window%999999 + 1
	return address + ":" + strconv.FormatUint(n, 10), nil
}
