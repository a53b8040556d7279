package contract

import (
	"time"

	"github.com/econtract/backend/internal/domain/shared"
	"github.com/econtract/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle status of a contract
type Status string

const (
	StatusDraft         Status = "DRAFT"
	StatusInNegotiation Status = "IN_NEGOTIATION"
	StatusInApproval    Status = "IN_APPROVAL"
	StatusApproved      Status = "APPROVED"
	StatusActive        Status = "ACTIVE"
	StatusExpired       Status = "EXPIRED"
	StatusTerminated    Status = "TERMINATED"
)

// IsValid checks if the status is a valid contract status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusInNegotiation, StatusInApproval, StatusApproved,
		StatusActive, StatusExpired, StatusTerminated:
		return true
	}
	return false
}

// IsTerminal returns true if the contract is in a terminal state
func (s Status) IsTerminal() bool {
	return s == StatusTerminated
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// statusTransitions is the single source of truth for legal contract status
// transitions. Mutators consult it instead of re-deriving legality inline.
var statusTransitions = map[Status][]Status{
	StatusDraft:         {StatusInNegotiation, StatusInApproval, StatusTerminated},
	StatusInNegotiation: {StatusDraft, StatusInApproval, StatusTerminated},
	StatusInApproval:    {StatusInNegotiation, StatusApproved, StatusTerminated},
	StatusApproved:      {StatusActive, StatusTerminated},
	StatusActive:        {StatusExpired, StatusTerminated},
	StatusExpired:       {StatusTerminated},
	StatusTerminated:    {},
}

// CanTransitionTo reports whether the status may move to target
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// BillingCycle represents the recurrence period for scheduled invoicing
type BillingCycle string

const (
	CycleMonthly   BillingCycle = "MONTHLY"
	CycleQuarterly BillingCycle = "QUARTERLY"
	CycleYearly    BillingCycle = "YEARLY"
	CycleOneTime   BillingCycle = "ONE_TIME"
)

// IsValid checks if the billing cycle is valid
func (c BillingCycle) IsValid() bool {
	switch c {
	case CycleMonthly, CycleQuarterly, CycleYearly, CycleOneTime:
		return true
	}
	return false
}

// months returns the cycle length in months, 0 for one-time cycles
func (c BillingCycle) months() int {
	switch c {
	case CycleMonthly:
		return 1
	case CycleQuarterly:
		return 3
	case CycleYearly:
		return 12
	}
	return 0
}

// Next returns the start of the billing period following one starting at
// current. One-time cycles have no successor and report done=true.
func (c BillingCycle) Next(current time.Time) (next time.Time, done bool) {
	if c == CycleOneTime {
		return current, true
	}
	return addMonthsClamped(current, c.months()), false
}

// PeriodEnd returns the inclusive end of the billing period starting at
// start: one cycle length ahead minus one day, with month-end clamping so a
// monthly period starting Jan 31 ends Feb 28/29. One-time periods are a
// single day.
func (c BillingCycle) PeriodEnd(start time.Time) time.Time {
	if c == CycleOneTime {
		return start
	}
	return addMonthsClamped(start, c.months()).AddDate(0, 0, -1)
}

// addMonthsClamped adds months to a date, clamping the day to the target
// month's last day instead of letting it overflow (Jan 31 + 1 month is
// Feb 28, not Mar 3).
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, t.Location())
}

// DefaultPaymentTermDays is applied when a contract does not specify its own
// payment term.
const DefaultPaymentTermDays = 30

// Contract is the aggregate root for a customer contract. It carries the
// billing parameters consumed by schedule generation and owns the pricing
// rules and service records referencing it.
type Contract struct {
	shared.BaseAggregateRoot
	ContractNumber   string
	Title            string
	ContractType     string
	Status           Status
	PartnerName      string
	PartnerID        *uuid.UUID
	StartDate        *time.Time
	EndDate          *time.Time
	NoticePeriodDays *int
	AutoRenewal      bool
	ContractValue    *decimal.Decimal
	Currency         valueobject.Currency
	Department       string

	// Billing configuration for recurring invoice generation
	BillingCycle     *BillingCycle
	BillingAmount    *decimal.Decimal
	BillingStartDate *time.Time
	PaymentTermDays  int

	OwnerUserID uuid.UUID
	CreatedBy   uuid.UUID
}

// NewContract creates a new contract in DRAFT status
func NewContract(contractNumber, title, contractType, partnerName string, ownerUserID, createdBy uuid.UUID) (*Contract, error) {
	if contractNumber == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Contract number cannot be empty")
	}
	if title == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Contract title cannot be empty")
	}
	if partnerName == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Partner name cannot be empty")
	}
	if ownerUserID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Owner user ID cannot be empty")
	}

	return &Contract{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ContractNumber:    contractNumber,
		Title:             title,
		ContractType:      contractType,
		Status:            StatusDraft,
		PartnerName:       partnerName,
		Currency:          valueobject.DefaultCurrency,
		PaymentTermDays:   DefaultPaymentTermDays,
		OwnerUserID:       ownerUserID,
		CreatedBy:         createdBy,
	}, nil
}

// TransitionTo moves the contract to the target status if the transition
// table allows it
func (c *Contract) TransitionTo(target Status) error {
	if !target.IsValid() {
		return shared.NewDomainErrorf(shared.CodeValidation, "Invalid contract status: %s", target)
	}
	if !c.Status.CanTransitionTo(target) {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Contract %s cannot transition from %s to %s", c.ID, c.Status, target)
	}
	c.Status = target
	c.Touch()
	return nil
}

// canEditBillingTerms reports whether billing fields may still be changed
func (c *Contract) canEditBillingTerms() bool {
	return c.Status == StatusDraft || c.Status == StatusInNegotiation
}

// UpdateBillingTerms sets the billing configuration. Billing fields may only
// be edited while the contract is in DRAFT or IN_NEGOTIATION.
func (c *Contract) UpdateBillingTerms(cycle *BillingCycle, amount *decimal.Decimal, startDate *time.Time, paymentTermDays int) error {
	if !c.canEditBillingTerms() {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Contract %s billing terms cannot be edited in status %s", c.ID, c.Status)
	}
	if cycle != nil && !cycle.IsValid() {
		return shared.NewDomainErrorf(shared.CodeValidation, "Invalid billing cycle: %s", *cycle)
	}
	if amount != nil && amount.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Billing amount cannot be negative")
	}
	if paymentTermDays <= 0 {
		paymentTermDays = DefaultPaymentTermDays
	}

	c.BillingCycle = cycle
	c.BillingAmount = amount
	c.BillingStartDate = startDate
	c.PaymentTermDays = paymentTermDays
	c.Touch()
	return nil
}

// UpdateDetails updates the descriptive contract fields. A terminated
// contract is immutable.
func (c *Contract) UpdateDetails(title, contractType, partnerName, department string, startDate, endDate *time.Time) error {
	if c.Status.IsTerminal() {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Contract %s is terminated and cannot be modified", c.ID)
	}
	if title == "" {
		return shared.NewDomainError(shared.CodeValidation, "Contract title cannot be empty")
	}
	if partnerName == "" {
		return shared.NewDomainError(shared.CodeValidation, "Partner name cannot be empty")
	}
	if startDate != nil && endDate != nil && endDate.Before(*startDate) {
		return shared.NewDomainError(shared.CodeValidation, "Contract end date must not be before start date")
	}

	c.Title = title
	c.ContractType = contractType
	c.PartnerName = partnerName
	c.Department = department
	c.StartDate = startDate
	c.EndDate = endDate
	c.Touch()
	return nil
}

// HasBillingConfiguration reports whether schedule generation has enough
// configuration to run
func (c *Contract) HasBillingConfiguration() bool {
	return c.BillingCycle != nil && c.BillingStartDate != nil
}
