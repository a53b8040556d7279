package pricing

import (
	"time"

	"github.com/econtract/backend/internal/domain/shared"
	"github.com/econtract/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractPrice is a price rule attached to a contract. It defines the unit
// price for a service category within a validity window, optionally refined
// by quantity tiers.
type ContractPrice struct {
	shared.BaseAggregateRoot
	ContractID   uuid.UUID
	Category     string
	Description  string
	UnitPriceNet decimal.Decimal
	Currency     valueobject.Currency
	Unit         string
	ValidFrom    time.Time
	ValidTo      *time.Time
	Active       bool
	Tiers        []PriceTier
}

// PriceTier is a quantity band within a contract price. MaxQuantity is nil
// for an open-ended top tier.
type PriceTier struct {
	shared.BaseEntity
	ContractPriceID uuid.UUID
	MinQuantity     decimal.Decimal
	MaxQuantity     *decimal.Decimal
	UnitPrice       decimal.Decimal
}

// NewContractPrice creates an active price rule for a contract service category
func NewContractPrice(contractID uuid.UUID, category, description string, unitPriceNet decimal.Decimal, unit string, validFrom time.Time, validTo *time.Time) (*ContractPrice, error) {
	if contractID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Contract ID cannot be empty")
	}
	if category == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Service category cannot be empty")
	}
	if unitPriceNet.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Unit price cannot be negative")
	}
	if validTo != nil && validTo.Before(validFrom) {
		return nil, shared.NewDomainError(shared.CodeValidation, "Price validity end must not be before start")
	}

	return &ContractPrice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ContractID:        contractID,
		Category:          category,
		Description:       description,
		UnitPriceNet:      unitPriceNet,
		Currency:          valueobject.DefaultCurrency,
		Unit:              unit,
		ValidFrom:         validFrom,
		ValidTo:           validTo,
		Active:            true,
	}, nil
}

// AddTier appends a quantity tier. New tiers must not overlap an existing
// band; overlapping bands already in storage are tolerated at resolution
// time instead.
func (p *ContractPrice) AddTier(minQuantity decimal.Decimal, maxQuantity *decimal.Decimal, unitPrice decimal.Decimal) (*PriceTier, error) {
	if minQuantity.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Tier minimum quantity cannot be negative")
	}
	if maxQuantity != nil && maxQuantity.LessThan(minQuantity) {
		return nil, shared.NewDomainError(shared.CodeValidation, "Tier maximum quantity must not be below minimum")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Tier unit price cannot be negative")
	}
	for i := range p.Tiers {
		if p.Tiers[i].overlaps(minQuantity, maxQuantity) {
			return nil, shared.NewDomainErrorf(shared.CodeConflict,
				"Tier [%s, %s] overlaps an existing tier", minQuantity, formatMax(maxQuantity))
		}
	}

	tier := PriceTier{
		BaseEntity:      shared.NewBaseEntity(),
		ContractPriceID: p.ID,
		MinQuantity:     minQuantity,
		MaxQuantity:     maxQuantity,
		UnitPrice:       unitPrice,
	}
	p.Tiers = append(p.Tiers, tier)
	p.Touch()
	return &p.Tiers[len(p.Tiers)-1], nil
}

// RemoveTier deletes a tier by ID
func (p *ContractPrice) RemoveTier(tierID uuid.UUID) error {
	for i := range p.Tiers {
		if p.Tiers[i].ID == tierID {
			p.Tiers = append(p.Tiers[:i], p.Tiers[i+1:]...)
			p.Touch()
			return nil
		}
	}
	return shared.NewDomainErrorf(shared.CodeNotFound, "Price tier not found: %s", tierID)
}

// UpdateDetails changes the descriptive fields and base unit price
func (p *ContractPrice) UpdateDetails(description string, unitPriceNet decimal.Decimal, unit string) error {
	if unitPriceNet.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Unit price cannot be negative")
	}
	p.Description = description
	p.UnitPriceNet = unitPriceNet
	p.Unit = unit
	p.Touch()
	return nil
}

// UpdateValidity changes the validity window
func (p *ContractPrice) UpdateValidity(validFrom time.Time, validTo *time.Time) error {
	if validTo != nil && validTo.Before(validFrom) {
		return shared.NewDomainError(shared.CodeValidation, "Price validity end must not be before start")
	}
	p.ValidFrom = validFrom
	p.ValidTo = validTo
	p.Touch()
	return nil
}

// Deactivate retires the price rule without deleting it
func (p *ContractPrice) Deactivate() {
	p.Active = false
	p.Touch()
}

// IsValidOn reports whether the price applies on the given date. The rule
// must be active; ValidFrom is inclusive, a nil ValidTo means open ended,
// otherwise ValidTo is inclusive.
func (p *ContractPrice) IsValidOn(date time.Time) bool {
	if !p.Active {
		return false
	}
	if date.Before(p.ValidFrom) {
		return false
	}
	if p.ValidTo != nil && date.After(*p.ValidTo) {
		return false
	}
	return true
}

// TierFor returns the tier whose band contains quantity, or nil when none
// matches. MinQuantity is inclusive, MaxQuantity is inclusive when set.
// Among overlapping bands the tier with the greatest MinQuantity wins.
func (p *ContractPrice) TierFor(quantity decimal.Decimal) *PriceTier {
	var best *PriceTier
	for i := range p.Tiers {
		t := &p.Tiers[i]
		if quantity.LessThan(t.MinQuantity) {
			continue
		}
		if t.MaxQuantity != nil && quantity.GreaterThan(*t.MaxQuantity) {
			continue
		}
		if best == nil || t.MinQuantity.GreaterThan(best.MinQuantity) {
			best = t
		}
	}
	return best
}

func (t *PriceTier) overlaps(min decimal.Decimal, max *decimal.Decimal) bool {
	if t.MaxQuantity != nil && min.GreaterThan(*t.MaxQuantity) {
		return false
	}
	if max != nil && t.MinQuantity.GreaterThan(*max) {
		return false
	}
	return true
}

func formatMax(max *decimal.Decimal) string {
	if max == nil {
		return "unbounded"
	}
	return max.String()
}
