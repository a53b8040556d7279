package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/econtract/backend/internal/domain/billing"
	"github.com/econtract/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoice(t *testing.T, number string) *billing.Invoice {
	t.Helper()
	invoiceDate := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	inv, err := billing.NewInvoice(number, billing.InvoiceTypeSingle, "Acme GmbH",
		invoiceDate, invoiceDate.AddDate(0, 0, 14), billing.DefaultTaxRatePct, uuid.New())
	require.NoError(t, err)
	return inv
}

func newScheduledInvoice(t *testing.T, number string, contractID uuid.UUID, scheduled time.Time) *billing.Invoice {
	t.Helper()
	inv := newTestInvoice(t, number)
	inv.ContractID = &contractID
	inv.Status = billing.InvoiceStatusScheduled
	inv.ScheduledDate = &scheduled
	return inv
}

func TestInvoiceRepository_SaveAndFind(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	t.Run("round trips an invoice with items in position order", func(t *testing.T) {
		inv := newTestInvoice(t, "2026-INV-001")
		_, err := inv.AddItem(nil, "consulting", decimal.NewFromInt(8), "hour",
			decimal.NewFromInt(120), decimal.Zero, nil, nil)
		require.NoError(t, err)
		_, err = inv.AddItem(nil, "travel", decimal.NewFromInt(1), "flat",
			decimal.NewFromInt(50), decimal.Zero, nil, nil)
		require.NoError(t, err)
		require.NoError(t, inv.RecalculateTotals())

		require.NoError(t, repo.Save(ctx, inv))

		found, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "2026-INV-001", found.InvoiceNumber)
		assert.Equal(t, billing.InvoiceStatusDraft, found.Status)
		require.Len(t, found.Items, 2)
		assert.Equal(t, 1, found.Items[0].Position)
		assert.Equal(t, "consulting", found.Items[0].Description)
		assert.Equal(t, 2, found.Items[1].Position)
		assert.True(t, found.SubtotalNet.Equal(decimal.NewFromInt(1010)))
		assert.True(t, found.TotalGross.Equal(decimal.RequireFromString("1201.90")))
	})

	t.Run("removing an item persists", func(t *testing.T) {
		inv := newTestInvoice(t, "2026-INV-002")
		_, err := inv.AddItem(nil, "a", decimal.NewFromInt(1), "x", decimal.NewFromInt(10), decimal.Zero, nil, nil)
		require.NoError(t, err)
		second, err := inv.AddItem(nil, "b", decimal.NewFromInt(1), "x", decimal.NewFromInt(20), decimal.Zero, nil, nil)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, inv))

		require.NoError(t, inv.RemoveItem(second.ID))
		require.NoError(t, repo.Save(ctx, inv))

		found, err := repo.FindByID(ctx, inv.ID)
		require.NoError(t, err)
		require.Len(t, found.Items, 1)
		assert.Equal(t, "a", found.Items[0].Description)
	})

	t.Run("unknown id reports not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestInvoiceRepository_FindByInvoiceNumber(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	inv := newTestInvoice(t, "2026-INV-010")
	require.NoError(t, repo.Save(ctx, inv))

	found, err := repo.FindByInvoiceNumber(ctx, "2026-INV-010")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, found.ID)

	_, err = repo.FindByInvoiceNumber(ctx, "2026-INV-999")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInvoiceRepository_FindAll(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		inv := newTestInvoice(t, fmt.Sprintf("2026-INV-%03d", i))
		require.NoError(t, repo.Save(ctx, inv))
	}

	page, err := repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 2, OrderBy: "invoice_number", OrderDir: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "2026-INV-001", page.Items[0].InvoiceNumber)

	page, err = repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 10, Search: "inv-002"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "2026-INV-002", page.Items[0].InvoiceNumber)
}

func TestInvoiceRepository_ScheduledInvoices(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	contractID := uuid.New()
	first := newScheduledInvoice(t, "2026-INV-101", contractID, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	second := newScheduledInvoice(t, "2026-INV-102", contractID, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	// A sent invoice on the same contract must survive regeneration.
	sent := newScheduledInvoice(t, "2026-INV-103", contractID, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, sent.TransitionTo(billing.InvoiceStatusSent))
	require.NoError(t, repo.Save(ctx, sent))

	t.Run("finds scheduled invoices in date order", func(t *testing.T) {
		scheduled, err := repo.FindScheduledByContract(ctx, contractID)
		require.NoError(t, err)
		require.Len(t, scheduled, 2)
		assert.Equal(t, first.ID, scheduled[0].ID)
		assert.Equal(t, second.ID, scheduled[1].ID)
	})

	t.Run("deletes only scheduled invoices", func(t *testing.T) {
		deleted, err := repo.DeleteScheduledByContract(ctx, contractID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		remaining, err := repo.FindByContract(ctx, contractID)
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		assert.Equal(t, sent.ID, remaining[0].ID)

		deleted, err = repo.DeleteScheduledByContract(ctx, contractID)
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})
}

func TestInvoiceRepository_FindOverdue(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	overdue := newTestInvoice(t, "2026-INV-201")
	require.NoError(t, overdue.Approve())
	require.NoError(t, overdue.Send())
	require.NoError(t, repo.Save(ctx, overdue))

	paid := newTestInvoice(t, "2026-INV-202")
	require.NoError(t, paid.Approve())
	require.NoError(t, paid.Send())
	require.NoError(t, paid.MarkPaid())
	require.NoError(t, repo.Save(ctx, paid))

	draft := newTestInvoice(t, "2026-INV-203")
	require.NoError(t, repo.Save(ctx, draft))

	t.Run("past due sent invoices only", func(t *testing.T) {
		invoices, err := repo.FindOverdue(ctx, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, invoices, 1)
		assert.Equal(t, overdue.ID, invoices[0].ID)
	})

	t.Run("nothing overdue before the due date", func(t *testing.T) {
		invoices, err := repo.FindOverdue(ctx, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Empty(t, invoices)
	})
}

func TestInvoiceRepository_Delete(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	inv := newTestInvoice(t, "2026-INV-301")
	_, err := inv.AddItem(nil, "a", decimal.NewFromInt(1), "x", decimal.NewFromInt(10), decimal.Zero, nil, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, inv))

	require.NoError(t, repo.Delete(ctx, inv.ID))
	_, err = repo.FindByID(ctx, inv.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, inv.ID), shared.ErrNotFound)
}
