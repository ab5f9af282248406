// Package screening submits ingested media to the fingerprinting service
// and polls the verification job to a terminal outcome.
package screening
