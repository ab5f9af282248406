// Package ledger talks to the IP ledger relayer that submits on-chain
// transactions: minting and registering IP assets, registering derivatives,
// claiming royalty revenue, and minting license tokens.
//
// Every failure is tagged services.ErrLedger and is never retried
// automatically; the relayer's transactions are not idempotent.
package ledger
