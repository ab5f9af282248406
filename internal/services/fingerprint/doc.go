// Package fingerprint talks to the content verification service: submitting
// registered media for fingerprinting, fetching verification status
// snapshots, and recording cross-licensing authorizations between tokens.
package fingerprint
