// Package minting registers screened works with the ledger relayer and
// records the resulting on-chain identifiers.
package minting
