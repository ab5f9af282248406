// Package verification holds the content-verification data model and the
// bounded-retry poller that drives an asynchronous fingerprinting job to a
// terminal outcome.
package verification
