// Package services defines the shared error taxonomy and context carriers
// used by the pipeline stages and the external-collaborator clients.
//
// Three collaborators sit behind subpackages: storage (content-addressed
// media store), fingerprint (infringement-detection service), and ledger
// (on-chain IP registry).
package services
