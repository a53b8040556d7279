package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/econtract/backend/internal/domain/contract"
	"github.com/econtract/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContract(t *testing.T, number string) *contract.Contract {
	t.Helper()
	c, err := contract.NewContract(number, "Maintenance "+number, "SERVICE", "Acme GmbH", uuid.New(), uuid.New())
	require.NoError(t, err)
	return c
}

func TestContractRepository_SaveAndFind(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormContractRepository(db)
	ctx := context.Background()

	t.Run("round trips a contract", func(t *testing.T) {
		c := newTestContract(t, "CT-2026-001")
		cycle := contract.CycleMonthly
		amount := decimal.NewFromInt(1500)
		start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, c.UpdateBillingTerms(&cycle, &amount, &start, 14))

		require.NoError(t, repo.Save(ctx, c))

		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, found.ID)
		assert.Equal(t, "CT-2026-001", found.ContractNumber)
		assert.Equal(t, contract.StatusDraft, found.Status)
		assert.Equal(t, "Acme GmbH", found.PartnerName)
		require.NotNil(t, found.BillingCycle)
		assert.Equal(t, contract.CycleMonthly, *found.BillingCycle)
		require.NotNil(t, found.BillingAmount)
		assert.True(t, found.BillingAmount.Equal(amount))
		assert.Equal(t, 14, found.PaymentTermDays)
		assert.Equal(t, c.Version, found.Version)
	})

	t.Run("updates an existing contract in place", func(t *testing.T) {
		c := newTestContract(t, "CT-2026-002")
		require.NoError(t, repo.Save(ctx, c))

		require.NoError(t, c.TransitionTo(contract.StatusInNegotiation))
		require.NoError(t, repo.Save(ctx, c))

		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, contract.StatusInNegotiation, found.Status)
		assert.Equal(t, 2, found.Version)
	})

	t.Run("unknown id reports not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestContractRepository_FindByContractNumber(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormContractRepository(db)
	ctx := context.Background()

	c := newTestContract(t, "CT-2026-100")
	require.NoError(t, repo.Save(ctx, c))

	found, err := repo.FindByContractNumber(ctx, "CT-2026-100")
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)

	_, err = repo.FindByContractNumber(ctx, "CT-9999-999")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestContractRepository_FindAll(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormContractRepository(db)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		c := newTestContract(t, fmt.Sprintf("CT-2026-%03d", i))
		require.NoError(t, repo.Save(ctx, c))
	}

	t.Run("paginates", func(t *testing.T) {
		page, err := repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 2, OrderBy: "contract_number", OrderDir: "asc"})
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.Total)
		assert.Equal(t, 3, page.TotalPages)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "CT-2026-001", page.Items[0].ContractNumber)

		page, err = repo.FindAll(ctx, shared.Filter{Page: 3, PageSize: 2, OrderBy: "contract_number", OrderDir: "asc"})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "CT-2026-005", page.Items[0].ContractNumber)
	})

	t.Run("search matches number, title and partner", func(t *testing.T) {
		page, err := repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 10, Search: "2026-003"})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "CT-2026-003", page.Items[0].ContractNumber)

		page, err = repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 10, Search: "acme"})
		require.NoError(t, err)
		assert.Len(t, page.Items, 5)
	})

	t.Run("rejects unknown sort fields", func(t *testing.T) {
		page, err := repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 10, OrderBy: "1; DROP TABLE contracts"})
		require.NoError(t, err)
		assert.Len(t, page.Items, 5)
	})
}

func TestContractRepository_FindByStatus(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormContractRepository(db)
	ctx := context.Background()

	active := newTestContract(t, "CT-2026-201")
	require.NoError(t, active.TransitionTo(contract.StatusInApproval))
	require.NoError(t, active.TransitionTo(contract.StatusApproved))
	require.NoError(t, active.TransitionTo(contract.StatusActive))
	require.NoError(t, repo.Save(ctx, active))

	draft := newTestContract(t, "CT-2026-202")
	require.NoError(t, repo.Save(ctx, draft))

	page, err := repo.FindByStatus(ctx, contract.StatusActive, shared.Filter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, active.ID, page.Items[0].ID)
}

func TestContractRepository_Delete(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormContractRepository(db)
	ctx := context.Background()

	c := newTestContract(t, "CT-2026-301")
	require.NoError(t, repo.Save(ctx, c))

	require.NoError(t, repo.Delete(ctx, c.ID))
	_, err := repo.FindByID(ctx, c.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, c.ID), shared.ErrNotFound)
}
