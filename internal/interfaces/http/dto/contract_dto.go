package dto

import (
	"time"

	"github.com/econtract/backend/internal/domain/contract"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractResponse is the API representation of a contract
type ContractResponse struct {
	ID               uuid.UUID        `json:"id"`
	ContractNumber   string           `json:"contract_number"`
	Title            string           `json:"title"`
	ContractType     string           `json:"contract_type"`
	Status           string           `json:"status"`
	PartnerName      string           `json:"partner_name"`
	PartnerID        *uuid.UUID       `json:"partner_id,omitempty"`
	StartDate        *time.Time       `json:"start_date,omitempty"`
	EndDate          *time.Time       `json:"end_date,omitempty"`
	NoticePeriodDays *int             `json:"notice_period_days,omitempty"`
	AutoRenewal      bool             `json:"auto_renewal"`
	ContractValue    *decimal.Decimal `json:"contract_value,omitempty"`
	Currency         string           `json:"currency"`
	Department       string           `json:"department,omitempty"`
	BillingCycle     *string          `json:"billing_cycle,omitempty"`
	BillingAmount    *decimal.Decimal `json:"billing_amount,omitempty"`
	BillingStartDate *time.Time       `json:"billing_start_date,omitempty"`
	PaymentTermDays  int              `json:"payment_term_days"`
	OwnerUserID      uuid.UUID        `json:"owner_user_id"`
	Version          int              `json:"version"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// FromContract maps a contract aggregate to its API representation
func FromContract(c *contract.Contract) ContractResponse {
	resp := ContractResponse{
		ID:               c.ID,
		ContractNumber:   c.ContractNumber,
		Title:            c.Title,
		ContractType:     c.ContractType,
		Status:           string(c.Status),
		PartnerName:      c.PartnerName,
		PartnerID:        c.PartnerID,
		StartDate:        c.StartDate,
		EndDate:          c.EndDate,
		NoticePeriodDays: c.NoticePeriodDays,
		AutoRenewal:      c.AutoRenewal,
		ContractValue:    c.ContractValue,
		Currency:         string(c.Currency),
		Department:       c.Department,
		BillingAmount:    c.BillingAmount,
		BillingStartDate: c.BillingStartDate,
		PaymentTermDays:  c.PaymentTermDays,
		OwnerUserID:      c.OwnerUserID,
		Version:          c.Version,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
	if c.BillingCycle != nil {
		cycle := string(*c.BillingCycle)
		resp.BillingCycle = &cycle
	}
	return resp
}

// FromContracts maps a slice of contracts
func FromContracts(contracts []*contract.Contract) []ContractResponse {
	out := make([]ContractResponse, len(contracts))
	for i, c := range contracts {
		out[i] = FromContract(c)
	}
	return out
}
