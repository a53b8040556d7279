package models

import (
	"time"

	"github.com/econtract/backend/internal/domain/contract"
	"github.com/econtract/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractModel is the persistence model for the Contract aggregate.
type ContractModel struct {
	AggregateModel
	ContractNumber   string               `gorm:"type:varchar(100);not null;uniqueIndex"`
	Title            string               `gorm:"type:varchar(255);not null"`
	ContractType     string               `gorm:"type:varchar(100)"`
	Status           contract.Status      `gorm:"type:varchar(30);not null;index"`
	PartnerName      string               `gorm:"type:varchar(255);not null"`
	PartnerID        *uuid.UUID           `gorm:"type:uuid;index"`
	StartDate        *time.Time           `gorm:"type:timestamptz"`
	EndDate          *time.Time           `gorm:"type:timestamptz"`
	NoticePeriodDays *int
	AutoRenewal      bool                 `gorm:"not null;default:false"`
	ContractValue    *decimal.Decimal     `gorm:"type:decimal(15,2)"`
	Currency         valueobject.Currency `gorm:"type:varchar(3);not null"`
	Department       string               `gorm:"type:varchar(100)"`

	BillingCycle     *contract.BillingCycle `gorm:"type:varchar(20)"`
	BillingAmount    *decimal.Decimal       `gorm:"type:decimal(15,2)"`
	BillingStartDate *time.Time             `gorm:"type:timestamptz"`
	PaymentTermDays  int                    `gorm:"not null;default:30"`

	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "contracts"
}

// ToDomain converts the persistence model to a domain Contract aggregate.
func (m *ContractModel) ToDomain() *contract.Contract {
	return &contract.Contract{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ContractNumber:    m.ContractNumber,
		Title:             m.Title,
		ContractType:      m.ContractType,
		Status:            m.Status,
		PartnerName:       m.PartnerName,
		PartnerID:         m.PartnerID,
		StartDate:         m.StartDate,
		EndDate:           m.EndDate,
		NoticePeriodDays:  m.NoticePeriodDays,
		AutoRenewal:       m.AutoRenewal,
		ContractValue:     m.ContractValue,
		Currency:          m.Currency,
		Department:        m.Department,
		BillingCycle:      m.BillingCycle,
		BillingAmount:     m.BillingAmount,
		BillingStartDate:  m.BillingStartDate,
		PaymentTermDays:   m.PaymentTermDays,
		OwnerUserID:       m.OwnerUserID,
		CreatedBy:         m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain Contract aggregate.
func (m *ContractModel) FromDomain(c *contract.Contract) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.ContractNumber = c.ContractNumber
	m.Title = c.Title
	m.ContractType = c.ContractType
	m.Status = c.Status
	m.PartnerName = c.PartnerName
	m.PartnerID = c.PartnerID
	m.StartDate = c.StartDate
	m.EndDate = c.EndDate
	m.NoticePeriodDays = c.NoticePeriodDays
	m.AutoRenewal = c.AutoRenewal
	m.ContractValue = c.ContractValue
	m.Currency = c.Currency
	m.Department = c.Department
	m.BillingCycle = c.BillingCycle
	m.BillingAmount = c.BillingAmount
	m.BillingStartDate = c.BillingStartDate
	m.PaymentTermDays = c.PaymentTermDays
	m.OwnerUserID = c.OwnerUserID
	m.CreatedBy = c.CreatedBy
}

// ContractModelFromDomain creates a new persistence model from a domain Contract.
func ContractModelFromDomain(c *contract.Contract) *ContractModel {
	m := &ContractModel{}
	m.FromDomain(c)
	return m
}
