package dto

import (
	"time"

	"github.com/econtract/backend/internal/domain/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceResponse is the API representation of a contract price rule
type PriceResponse struct {
	ID           uuid.UUID       `json:"id"`
	ContractID   uuid.UUID       `json:"contract_id"`
	Category     string          `json:"category"`
	Description  string          `json:"description,omitempty"`
	UnitPriceNet decimal.Decimal `json:"unit_price_net"`
	Currency     string          `json:"currency"`
	Unit         string          `json:"unit,omitempty"`
	ValidFrom    time.Time       `json:"valid_from"`
	ValidTo      *time.Time      `json:"valid_to,omitempty"`
	Active       bool            `json:"active"`
	Tiers        []TierResponse  `json:"tiers"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TierResponse is the API representation of a quantity tier
type TierResponse struct {
	ID          uuid.UUID        `json:"id"`
	MinQuantity decimal.Decimal  `json:"min_quantity"`
	MaxQuantity *decimal.Decimal `json:"max_quantity,omitempty"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
}

// ResolvedPriceResponse is the outcome of a price resolution request
type ResolvedPriceResponse struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
	Source    string          `json:"source"`
	PriceID   uuid.UUID       `json:"price_id"`
	TierID    *uuid.UUID      `json:"tier_id,omitempty"`
}

// FromPrice maps a price rule aggregate to its API representation
func FromPrice(p *pricing.ContractPrice) PriceResponse {
	tiers := make([]TierResponse, len(p.Tiers))
	for i, t := range p.Tiers {
		tiers[i] = TierResponse{
			ID:          t.ID,
			MinQuantity: t.MinQuantity,
			MaxQuantity: t.MaxQuantity,
			UnitPrice:   t.UnitPrice,
		}
	}
	return PriceResponse{
		ID:           p.ID,
		ContractID:   p.ContractID,
		Category:     p.Category,
		Description:  p.Description,
		UnitPriceNet: p.UnitPriceNet,
		Currency:     string(p.Currency),
		Unit:         p.Unit,
		ValidFrom:    p.ValidFrom,
		ValidTo:      p.ValidTo,
		Active:       p.Active,
		Tiers:        tiers,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// FromPrices maps a slice of price rules
func FromPrices(prices []*pricing.ContractPrice) []PriceResponse {
	out := make([]PriceResponse, len(prices))
	for i, p := range prices {
		out[i] = FromPrice(p)
	}
	return out
}

// FromResolvedPrice maps a resolution outcome
func FromResolvedPrice(r *pricing.ResolvedPrice) ResolvedPriceResponse {
	return ResolvedPriceResponse{
		UnitPrice: r.UnitPrice,
		Source:    string(r.Source),
		PriceID:   r.PriceID,
		TierID:    r.TierID,
	}
}
