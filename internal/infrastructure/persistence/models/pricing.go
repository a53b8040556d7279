package models

import (
	"time"

	"github.com/econtract/backend/internal/domain/pricing"
	"github.com/econtract/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractPriceModel is the persistence model for the ContractPrice aggregate.
// Tiers are persisted in their own table and loaded eagerly.
type ContractPriceModel struct {
	AggregateModel
	ContractID   uuid.UUID            `gorm:"type:uuid;not null;index:idx_prices_contract_category"`
	Category     string               `gorm:"type:varchar(100);not null;index:idx_prices_contract_category"`
	Description  string               `gorm:"type:varchar(500)"`
	UnitPriceNet decimal.Decimal      `gorm:"type:decimal(15,2);not null"`
	Currency     valueobject.Currency `gorm:"type:varchar(3);not null"`
	Unit         string               `gorm:"type:varchar(50)"`
	ValidFrom    time.Time            `gorm:"type:timestamptz;not null"`
	ValidTo      *time.Time           `gorm:"type:timestamptz"`
	Active       bool                 `gorm:"not null;default:true"`
	Tiers        []PriceTierModel     `gorm:"foreignKey:ContractPriceID"`
}

// TableName returns the table name for GORM
func (ContractPriceModel) TableName() string {
	return "contract_prices"
}

// PriceTierModel is the persistence model for a quantity tier within a price rule.
type PriceTierModel struct {
	BaseModel
	ContractPriceID uuid.UUID        `gorm:"type:uuid;not null;index"`
	MinQuantity     decimal.Decimal  `gorm:"type:decimal(15,3);not null"`
	MaxQuantity     *decimal.Decimal `gorm:"type:decimal(15,3)"`
	UnitPrice       decimal.Decimal  `gorm:"type:decimal(15,2);not null"`
}

// TableName returns the table name for GORM
func (PriceTierModel) TableName() string {
	return "price_tiers"
}

// ToDomain converts the persistence model to a domain ContractPrice aggregate.
func (m *ContractPriceModel) ToDomain() *pricing.ContractPrice {
	price := &pricing.ContractPrice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ContractID:        m.ContractID,
		Category:          m.Category,
		Description:       m.Description,
		UnitPriceNet:      m.UnitPriceNet,
		Currency:          m.Currency,
		Unit:              m.Unit,
		ValidFrom:         m.ValidFrom,
		ValidTo:           m.ValidTo,
		Active:            m.Active,
	}
	if len(m.Tiers) > 0 {
		price.Tiers = make([]pricing.PriceTier, len(m.Tiers))
		for i := range m.Tiers {
			price.Tiers[i] = m.Tiers[i].ToDomainTier()
		}
	}
	return price
}

// ToDomainTier converts the tier model to a domain PriceTier.
func (m *PriceTierModel) ToDomainTier() pricing.PriceTier {
	return pricing.PriceTier{
		BaseEntity:      m.BaseModel.ToDomain(),
		ContractPriceID: m.ContractPriceID,
		MinQuantity:     m.MinQuantity,
		MaxQuantity:     m.MaxQuantity,
		UnitPrice:       m.UnitPrice,
	}
}

// FromDomain populates the persistence model from a domain ContractPrice.
func (m *ContractPriceModel) FromDomain(p *pricing.ContractPrice) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.ContractID = p.ContractID
	m.Category = p.Category
	m.Description = p.Description
	m.UnitPriceNet = p.UnitPriceNet
	m.Currency = p.Currency
	m.Unit = p.Unit
	m.ValidFrom = p.ValidFrom
	m.ValidTo = p.ValidTo
	m.Active = p.Active
	m.Tiers = make([]PriceTierModel, len(p.Tiers))
	for i := range p.Tiers {
		m.Tiers[i] = PriceTierModelFromDomain(&p.Tiers[i])
	}
}

// PriceTierModelFromDomain creates a tier model from a domain PriceTier.
func PriceTierModelFromDomain(t *pricing.PriceTier) PriceTierModel {
	m := PriceTierModel{
		ContractPriceID: t.ContractPriceID,
		MinQuantity:     t.MinQuantity,
		MaxQuantity:     t.MaxQuantity,
		UnitPrice:       t.UnitPrice,
	}
	m.FromDomainBaseEntity(t.BaseEntity)
	return m
}

// ContractPriceModelFromDomain creates a new persistence model from a domain ContractPrice.
func ContractPriceModelFromDomain(p *pricing.ContractPrice) *ContractPriceModel {
	m := &ContractPriceModel{}
	m.FromDomain(p)
	return m
}
