// Package ingest reads submitted media from disk, derives content
// identifiers, and uploads the bytes to the storage gateway.
package ingest
