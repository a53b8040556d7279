package contract

import (
	"testing"
	"time"

	"github.com/econtract/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestContract(t *testing.T) *Contract {
	t.Helper()
	c, err := NewContract("C-2025-0001", "Hosting Agreement", "SERVICE", "Acme GmbH", uuid.New(), uuid.New())
	require.NoError(t, err)
	return c
}

func TestNewContract(t *testing.T) {
	t.Run("creates draft contract with defaults", func(t *testing.T) {
		c := newTestContract(t)

		assert.Equal(t, StatusDraft, c.Status)
		assert.Equal(t, DefaultPaymentTermDays, c.PaymentTermDays)
		assert.NotEqual(t, uuid.Nil, c.ID)
		assert.Equal(t, 1, c.Version)
	})

	t.Run("rejects empty contract number", func(t *testing.T) {
		_, err := NewContract("", "Title", "SERVICE", "Acme", uuid.New(), uuid.New())
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects empty partner name", func(t *testing.T) {
		_, err := NewContract("C-1", "Title", "SERVICE", "", uuid.New(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestContractTransitions(t *testing.T) {
	t.Run("follows the happy path to active", func(t *testing.T) {
		c := newTestContract(t)

		require.NoError(t, c.TransitionTo(StatusInNegotiation))
		require.NoError(t, c.TransitionTo(StatusInApproval))
		require.NoError(t, c.TransitionTo(StatusApproved))
		require.NoError(t, c.TransitionTo(StatusActive))
		assert.Equal(t, StatusActive, c.Status)
	})

	t.Run("rejects skipping approval", func(t *testing.T) {
		c := newTestContract(t)

		err := c.TransitionTo(StatusActive)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, StatusDraft, c.Status)
	})

	t.Run("negotiation can fall back to draft", func(t *testing.T) {
		c := newTestContract(t)
		require.NoError(t, c.TransitionTo(StatusInNegotiation))
		require.NoError(t, c.TransitionTo(StatusDraft))
	})

	t.Run("terminated is terminal", func(t *testing.T) {
		c := newTestContract(t)
		require.NoError(t, c.TransitionTo(StatusTerminated))

		err := c.TransitionTo(StatusDraft)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("increments version on transition", func(t *testing.T) {
		c := newTestContract(t)
		v := c.Version
		require.NoError(t, c.TransitionTo(StatusInNegotiation))
		assert.Equal(t, v+1, c.Version)
	})
}

func TestUpdateBillingTerms(t *testing.T) {
	cycle := CycleMonthly
	amount := decimal.NewFromFloat(99.90)
	start := date(2025, time.January, 1)

	t.Run("allowed in draft", func(t *testing.T) {
		c := newTestContract(t)
		require.NoError(t, c.UpdateBillingTerms(&cycle, &amount, &start, 14))

		assert.Equal(t, CycleMonthly, *c.BillingCycle)
		assert.Equal(t, 14, c.PaymentTermDays)
		assert.True(t, c.HasBillingConfiguration())
	})

	t.Run("zero payment term falls back to default", func(t *testing.T) {
		c := newTestContract(t)
		require.NoError(t, c.UpdateBillingTerms(&cycle, &amount, &start, 0))
		assert.Equal(t, DefaultPaymentTermDays, c.PaymentTermDays)
	})

	t.Run("rejected once approved", func(t *testing.T) {
		c := newTestContract(t)
		require.NoError(t, c.TransitionTo(StatusInNegotiation))
		require.NoError(t, c.TransitionTo(StatusInApproval))
		require.NoError(t, c.TransitionTo(StatusApproved))

		err := c.UpdateBillingTerms(&cycle, &amount, &start, 30)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		c := newTestContract(t)
		neg := decimal.NewFromInt(-5)
		err := c.UpdateBillingTerms(&cycle, &neg, &start, 30)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestUpdateDetails(t *testing.T) {
	t.Run("rejects end before start", func(t *testing.T) {
		c := newTestContract(t)
		start := date(2025, time.June, 1)
		end := date(2025, time.May, 1)

		err := c.UpdateDetails("Title", "SERVICE", "Acme", "IT", &start, &end)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejected on terminated contract", func(t *testing.T) {
		c := newTestContract(t)
		require.NoError(t, c.TransitionTo(StatusTerminated))

		err := c.UpdateDetails("New Title", "SERVICE", "Acme", "", nil, nil)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestBillingCyclePeriods(t *testing.T) {
	t.Run("monthly period end", func(t *testing.T) {
		end := CycleMonthly.PeriodEnd(date(2025, time.January, 1))
		assert.Equal(t, date(2025, time.January, 31), end)
	})

	t.Run("monthly clamps to short months", func(t *testing.T) {
		end := CycleMonthly.PeriodEnd(date(2025, time.January, 31))
		assert.Equal(t, date(2025, time.February, 27), end)

		next, done := CycleMonthly.Next(date(2025, time.January, 31))
		assert.False(t, done)
		assert.Equal(t, date(2025, time.February, 28), next)
	})

	t.Run("quarterly period end", func(t *testing.T) {
		end := CycleQuarterly.PeriodEnd(date(2025, time.January, 1))
		assert.Equal(t, date(2025, time.March, 31), end)
	})

	t.Run("yearly period end", func(t *testing.T) {
		end := CycleYearly.PeriodEnd(date(2025, time.January, 1))
		assert.Equal(t, date(2025, time.December, 31), end)
	})

	t.Run("yearly across leap day", func(t *testing.T) {
		next, done := CycleYearly.Next(date(2024, time.February, 29))
		assert.False(t, done)
		assert.Equal(t, date(2025, time.February, 28), next)
	})

	t.Run("one time has no successor", func(t *testing.T) {
		start := date(2025, time.January, 15)
		assert.Equal(t, start, CycleOneTime.PeriodEnd(start))

		_, done := CycleOneTime.Next(start)
		assert.True(t, done)
	})
}
