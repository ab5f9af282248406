// Package storage uploads media binaries and metadata documents to the
// content-addressed storage gateway and derives public gateway URLs from the
// returned content identifiers.
package storage
