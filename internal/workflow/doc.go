// Package workflow advances submitted works through the processing
// pipeline.
//
// The Manager polls the registry for the next actionable work, reclaims
// stale processing rows via heartbeats, and feeds works into the registered
// stage handlers (ingest, screening, minting) while capturing progress and
// failure metadata. It also aggregates registry stats and calls stage health
// checks.
//
// Add new lifecycle stages by extending StageSet, updating the registry
// status enums, and teaching the manager how to transition works; this
// package is the authoritative home for that coordination logic.
package workflow
