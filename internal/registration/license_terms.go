package registration

import (
	"phonogram/internal/config"
	"phonogram/internal/services/ledger"
)

// Flow selects which license template parameterization applies to a mint.
type Flow int

const (
	// FlowStandard is the commercial-remix template used for ordinary
	// registrations: minting fee 1, revenue share 5% unless configured
	// otherwise.
	FlowStandard Flow = iota
	// FlowOneTimeUse zeroes the fee and revenue share for single-use
	// licenses.
	FlowOneTimeUse
)

// BuildLicenseTerms parameterizes the commercial-remix template for a flow.
func BuildLicenseTerms(flow Flow, licensing config.Licensing) ledger.LicenseTerms {
	terms := ledger.LicenseTerms{
		Transferable:       true,
		CommercialUse:      true,
		DerivativesAllowed: true,
		RoyaltyPolicy:      licensing.RoyaltyPolicy,
		Currency:           licensing.CurrencyToken,
	}
	switch flow {
	case FlowOneTimeUse:
		terms.DefaultMintingFee = 0
		terms.CommercialRevShare = 0
	default:
		terms.DefaultMintingFee = licensing.DefaultMintingFee
		terms.CommercialRevShare = licensing.CommercialRevShare
	}
	return terms
}
