// Package contentid derives deterministic content digests and asset
// identifiers. Downstream systems hold ids produced by these derivations, so
// the algorithms are fixed: SHA-256 content hashes, the synthetic token-id
// substring offsets, and CIDv1 (raw + sha2-256) content addresses.
package contentid
