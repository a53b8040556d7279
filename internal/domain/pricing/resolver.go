package pricing

import (
	"bytes"
	"time"

	"github.com/econtract/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceSource identifies which part of a price rule supplied the unit price
type PriceSource string

const (
	SourceBase PriceSource = "BASE"
	SourceTier PriceSource = "TIER"
)

// ResolvedPrice is the outcome of a price resolution
type ResolvedPrice struct {
	UnitPrice decimal.Decimal
	Source    PriceSource
	PriceID   uuid.UUID
	TierID    *uuid.UUID
}

// Resolve picks the unit price for a service category, quantity and service
// date out of a contract's price rules. Resolution runs in two phases: first
// the candidate set is narrowed to active rules for the category whose
// validity window contains the service date, then the winning rule's tier
// band is applied. A nil quantity, or a quantity no tier band contains,
// yields the rule's base unit price.
//
// Overlapping validity windows are a data inconsistency the resolver must
// tolerate: the rule with the latest ValidFrom wins, ties broken by the
// greater rule ID so the outcome never depends on candidate order.
func Resolve(prices []*ContractPrice, category string, quantity *decimal.Decimal, serviceDate time.Time) (*ResolvedPrice, error) {
	var best *ContractPrice
	for _, p := range prices {
		if p.Category != category || !p.IsValidOn(serviceDate) {
			continue
		}
		if best == nil || morePrecise(p, best) {
			best = p
		}
	}
	if best == nil {
		return nil, shared.NewDomainErrorf(shared.CodeNotFound,
			"No price rule for category %s valid on %s", category, serviceDate.Format("2006-01-02"))
	}

	if quantity != nil {
		if tier := best.TierFor(*quantity); tier != nil {
			tierID := tier.ID
			return &ResolvedPrice{
				UnitPrice: tier.UnitPrice,
				Source:    SourceTier,
				PriceID:   best.ID,
				TierID:    &tierID,
			}, nil
		}
	}

	return &ResolvedPrice{
		UnitPrice: best.UnitPriceNet,
		Source:    SourceBase,
		PriceID:   best.ID,
	}, nil
}

// morePrecise reports whether candidate should replace current as the
// winning rule
func morePrecise(candidate, current *ContractPrice) bool {
	if candidate.ValidFrom.After(current.ValidFrom) {
		return true
	}
	if candidate.ValidFrom.Before(current.ValidFrom) {
		return false
	}
	return bytes.Compare(candidate.ID[:], current.ID[:]) > 0
}
