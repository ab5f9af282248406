// Package registry persists audio works and their registration records in
// SQLite and exposes helpers for driving the pipeline lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, heartbeat tracking, stuck-work recovery, and status transitions
// that mirror the public workflow enum. Works capture progress, content
// identifiers, verification outcomes, and review flags so stages can
// coordinate without additional state. Registered IP assets, derivative
// links, and revenue claims live in side tables keyed to the chain
// identifiers returned by the ledger service.
//
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package registry
