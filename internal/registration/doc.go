// Package registration sequences the registration pipeline for one audio
// work: metadata hashing, storage uploads, license-terms construction,
// verification gating, and the ledger mint call, recording the resulting
// asset identifiers.
package registration
