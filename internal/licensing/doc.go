// Package licensing manages derivative registration, license-token minting,
// and royalty claims on top of the ledger client, keeping the local
// derivative-link and revenue-claim bookkeeping consistent with ledger
// responses.
package licensing
