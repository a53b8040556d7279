package models

import (
	"time"

	"github.com/econtract/backend/internal/domain/billing"
	"github.com/econtract/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceRecordModel is the persistence model for the ServiceRecord aggregate.
// InvoiceItemID being non-null is what the atomic claim guards on.
type ServiceRecordModel struct {
	AggregateModel
	ContractID    uuid.UUID                   `gorm:"type:uuid;not null;index"`
	ServiceDate   time.Time                   `gorm:"type:timestamptz;not null"`
	Category      string                      `gorm:"type:varchar(100);not null"`
	Description   string                      `gorm:"type:varchar(500)"`
	Quantity      decimal.Decimal             `gorm:"type:decimal(15,3);not null"`
	Unit          string                      `gorm:"type:varchar(50)"`
	UnitPrice     decimal.Decimal             `gorm:"type:decimal(15,2);not null"`
	Total         decimal.Decimal             `gorm:"type:decimal(15,2);not null"`
	Currency      valueobject.Currency        `gorm:"type:varchar(3);not null"`
	Status        billing.ServiceRecordStatus `gorm:"type:varchar(20);not null;index"`
	InvoiceItemID *uuid.UUID                  `gorm:"type:uuid;index"`
	InvoicedDate  *time.Time                  `gorm:"type:timestamptz"`
	CreatedBy     uuid.UUID                   `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (ServiceRecordModel) TableName() string {
	return "service_records"
}

// ToDomain converts the persistence model to a domain ServiceRecord.
func (m *ServiceRecordModel) ToDomain() *billing.ServiceRecord {
	return &billing.ServiceRecord{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ContractID:        m.ContractID,
		ServiceDate:       m.ServiceDate,
		Category:          m.Category,
		Description:       m.Description,
		Quantity:          m.Quantity,
		Unit:              m.Unit,
		UnitPrice:         m.UnitPrice,
		Total:             m.Total,
		Currency:          m.Currency,
		Status:            m.Status,
		InvoiceItemID:     m.InvoiceItemID,
		InvoicedDate:      m.InvoicedDate,
		CreatedBy:         m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain ServiceRecord.
func (m *ServiceRecordModel) FromDomain(r *billing.ServiceRecord) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.ContractID = r.ContractID
	m.ServiceDate = r.ServiceDate
	m.Category = r.Category
	m.Description = r.Description
	m.Quantity = r.Quantity
	m.Unit = r.Unit
	m.UnitPrice = r.UnitPrice
	m.Total = r.Total
	m.Currency = r.Currency
	m.Status = r.Status
	m.InvoiceItemID = r.InvoiceItemID
	m.InvoicedDate = r.InvoicedDate
	m.CreatedBy = r.CreatedBy
}

// ServiceRecordModelFromDomain creates a new persistence model from a domain ServiceRecord.
func ServiceRecordModelFromDomain(r *billing.ServiceRecord) *ServiceRecordModel {
	m := &ServiceRecordModel{}
	m.FromDomain(r)
	return m
}

// InvoiceModel is the persistence model for the Invoice aggregate. Items are
// stored in their own table and loaded eagerly.
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber      string                `gorm:"type:varchar(100);not null;uniqueIndex"`
	Type               billing.InvoiceType   `gorm:"type:varchar(20);not null"`
	Status             billing.InvoiceStatus `gorm:"type:varchar(20);not null;index"`
	ContractID         *uuid.UUID            `gorm:"type:uuid;index"`
	RecipientName      string                `gorm:"type:varchar(255);not null"`
	RecipientAddress   string                `gorm:"type:varchar(500)"`
	InvoiceDate        time.Time             `gorm:"type:timestamptz;not null"`
	BillingPeriodStart *time.Time            `gorm:"type:timestamptz"`
	BillingPeriodEnd   *time.Time            `gorm:"type:timestamptz"`
	DueDate            time.Time             `gorm:"type:timestamptz;not null;index"`
	ScheduledDate      *time.Time            `gorm:"type:timestamptz"`
	Currency           valueobject.Currency  `gorm:"type:varchar(3);not null"`
	TaxRate            decimal.Decimal       `gorm:"type:decimal(5,2);not null"`
	SubtotalNet        decimal.Decimal       `gorm:"type:decimal(15,2);not null"`
	TaxAmount          decimal.Decimal       `gorm:"type:decimal(15,2);not null"`
	TotalGross         decimal.Decimal       `gorm:"type:decimal(15,2);not null"`
	DiscountPercentage *decimal.Decimal      `gorm:"type:decimal(5,2)"`
	DiscountAmount     *decimal.Decimal      `gorm:"type:decimal(15,2)"`
	DiscountApplied    decimal.Decimal       `gorm:"type:decimal(15,2);not null"`
	Items              []InvoiceItemModel    `gorm:"foreignKey:InvoiceID"`
	CreatedBy          uuid.UUID             `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceItemModel is the persistence model for one invoice line.
type InvoiceItemModel struct {
	BaseModel
	InvoiceID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position           int             `gorm:"not null"`
	ServiceRecordID    *uuid.UUID      `gorm:"type:uuid;index"`
	Description        string          `gorm:"type:varchar(500)"`
	Quantity           decimal.Decimal `gorm:"type:decimal(15,3);not null"`
	Unit               string          `gorm:"type:varchar(50)"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	DiscountAmount     decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	TaxRate            decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	SubtotalNet        decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	TaxAmount          decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	TotalGross         decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	ServicePeriodStart *time.Time      `gorm:"type:timestamptz"`
	ServicePeriodEnd   *time.Time      `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain Invoice aggregate.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		BaseAggregateRoot:  m.ToDomainAggregateRoot(),
		InvoiceNumber:      m.InvoiceNumber,
		Type:               m.Type,
		Status:             m.Status,
		ContractID:         m.ContractID,
		RecipientName:      m.RecipientName,
		RecipientAddress:   m.RecipientAddress,
		InvoiceDate:        m.InvoiceDate,
		BillingPeriodStart: m.BillingPeriodStart,
		BillingPeriodEnd:   m.BillingPeriodEnd,
		DueDate:            m.DueDate,
		ScheduledDate:      m.ScheduledDate,
		Currency:           m.Currency,
		TaxRate:            m.TaxRate,
		SubtotalNet:        m.SubtotalNet,
		TaxAmount:          m.TaxAmount,
		TotalGross:         m.TotalGross,
		DiscountPercentage: m.DiscountPercentage,
		DiscountAmount:     m.DiscountAmount,
		DiscountApplied:    m.DiscountApplied,
		CreatedBy:          m.CreatedBy,
	}
	if len(m.Items) > 0 {
		inv.Items = make([]billing.InvoiceItem, len(m.Items))
		for i := range m.Items {
			inv.Items[i] = m.Items[i].ToDomainItem()
		}
	}
	return inv
}

// ToDomainItem converts the item model to a domain InvoiceItem.
func (m *InvoiceItemModel) ToDomainItem() billing.InvoiceItem {
	return billing.InvoiceItem{
		BaseEntity:         m.BaseModel.ToDomain(),
		InvoiceID:          m.InvoiceID,
		Position:           m.Position,
		ServiceRecordID:    m.ServiceRecordID,
		Description:        m.Description,
		Quantity:           m.Quantity,
		Unit:               m.Unit,
		UnitPrice:          m.UnitPrice,
		DiscountAmount:     m.DiscountAmount,
		TaxRate:            m.TaxRate,
		SubtotalNet:        m.SubtotalNet,
		TaxAmount:          m.TaxAmount,
		TotalGross:         m.TotalGross,
		ServicePeriodStart: m.ServicePeriodStart,
		ServicePeriodEnd:   m.ServicePeriodEnd,
	}
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.Type = inv.Type
	m.Status = inv.Status
	m.ContractID = inv.ContractID
	m.RecipientName = inv.RecipientName
	m.RecipientAddress = inv.RecipientAddress
	m.InvoiceDate = inv.InvoiceDate
	m.BillingPeriodStart = inv.BillingPeriodStart
	m.BillingPeriodEnd = inv.BillingPeriodEnd
	m.DueDate = inv.DueDate
	m.ScheduledDate = inv.ScheduledDate
	m.Currency = inv.Currency
	m.TaxRate = inv.TaxRate
	m.SubtotalNet = inv.SubtotalNet
	m.TaxAmount = inv.TaxAmount
	m.TotalGross = inv.TotalGross
	m.DiscountPercentage = inv.DiscountPercentage
	m.DiscountAmount = inv.DiscountAmount
	m.DiscountApplied = inv.DiscountApplied
	m.CreatedBy = inv.CreatedBy
	m.Items = make([]InvoiceItemModel, len(inv.Items))
	for i := range inv.Items {
		m.Items[i] = InvoiceItemModelFromDomain(&inv.Items[i])
	}
}

// InvoiceItemModelFromDomain creates an item model from a domain InvoiceItem.
func InvoiceItemModelFromDomain(it *billing.InvoiceItem) InvoiceItemModel {
	m := InvoiceItemModel{
		InvoiceID:          it.InvoiceID,
		Position:           it.Position,
		ServiceRecordID:    it.ServiceRecordID,
		Description:        it.Description,
		Quantity:           it.Quantity,
		Unit:               it.Unit,
		UnitPrice:          it.UnitPrice,
		DiscountAmount:     it.DiscountAmount,
		TaxRate:            it.TaxRate,
		SubtotalNet:        it.SubtotalNet,
		TaxAmount:          it.TaxAmount,
		TotalGross:         it.TotalGross,
		ServicePeriodStart: it.ServicePeriodStart,
		ServicePeriodEnd:   it.ServicePeriodEnd,
	}
	m.FromDomainBaseEntity(it.BaseEntity)
	return m
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// NumberSequenceModel backs the per-scope invoice number sequences.
type NumberSequenceModel struct {
	Scope     string    `gorm:"type:varchar(100);primary_key"`
	Value     int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (NumberSequenceModel) TableName() string {
	return "number_sequences"
}
