// Package daemon coordinates the long-running phonogram process.
//
// It wires configuration, registry storage, and the workflow manager into a
// single lifecycle with flock-based locking to prevent multiple instances.
// The daemon exposes registry maintenance helpers, manages manual work
// submission, and emits dependency health summaries.
//
// Keep orchestration logic here: individual pipeline steps should live in
// their respective packages while the daemon focuses on startup, shutdown,
// and high level coordination.
package daemon
