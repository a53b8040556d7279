package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/econtract/backend/internal/domain/billing"
	"github.com/econtract/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord(t *testing.T, contractID uuid.UUID, serviceDate time.Time) *billing.ServiceRecord {
	t.Helper()
	r, err := billing.NewServiceRecord(contractID, serviceDate, "CONSULTING", "onsite work",
		decimal.NewFromInt(8), "hour", decimal.NewFromInt(120), uuid.New())
	require.NoError(t, err)
	return r
}

func newApprovedRecord(t *testing.T, contractID uuid.UUID, serviceDate time.Time) *billing.ServiceRecord {
	t.Helper()
	r := newTestRecord(t, contractID, serviceDate)
	require.NoError(t, r.Approve())
	return r
}

func TestServiceRecordRepository_SaveAndFind(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormServiceRecordRepository(db)
	ctx := context.Background()

	contractID := uuid.New()
	serviceDate := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	t.Run("round trips a record", func(t *testing.T) {
		r := newTestRecord(t, contractID, serviceDate)
		require.NoError(t, repo.Save(ctx, r))

		found, err := repo.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.RecordStatusDraft, found.Status)
		assert.True(t, found.Quantity.Equal(decimal.NewFromInt(8)))
		assert.True(t, found.Total.Equal(decimal.NewFromInt(960)))
		assert.Nil(t, found.InvoiceItemID)
	})

	t.Run("unknown id reports not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("finds by ids", func(t *testing.T) {
		a := newTestRecord(t, contractID, serviceDate)
		b := newTestRecord(t, contractID, serviceDate)
		require.NoError(t, repo.Save(ctx, a))
		require.NoError(t, repo.Save(ctx, b))

		records, err := repo.FindByIDs(ctx, []uuid.UUID{a.ID, b.ID})
		require.NoError(t, err)
		assert.Len(t, records, 2)

		records, err = repo.FindByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestServiceRecordRepository_FindUninvoicedByContract(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormServiceRecordRepository(db)
	ctx := context.Background()

	contractID := uuid.New()
	later := newApprovedRecord(t, contractID, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
	earlier := newApprovedRecord(t, contractID, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	draft := newTestRecord(t, contractID, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, later))
	require.NoError(t, repo.Save(ctx, earlier))
	require.NoError(t, repo.Save(ctx, draft))

	claimed := newApprovedRecord(t, contractID, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, claimed))
	require.NoError(t, repo.Claim(ctx, claimed.ID, uuid.New(), time.Now()))

	records, err := repo.FindUninvoicedByContract(ctx, contractID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, earlier.ID, records[0].ID)
	assert.Equal(t, later.ID, records[1].ID)
}

func TestServiceRecordRepository_Claim(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormServiceRecordRepository(db)
	ctx := context.Background()

	contractID := uuid.New()
	serviceDate := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("claims an approved record", func(t *testing.T) {
		r := newApprovedRecord(t, contractID, serviceDate)
		require.NoError(t, repo.Save(ctx, r))

		itemID := uuid.New()
		invoicedDate := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Claim(ctx, r.ID, itemID, invoicedDate))

		found, err := repo.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.RecordStatusInvoiced, found.Status)
		require.NotNil(t, found.InvoiceItemID)
		assert.Equal(t, itemID, *found.InvoiceItemID)
		require.NotNil(t, found.InvoicedDate)
		assert.Equal(t, r.Version+1, found.Version)
	})

	t.Run("second claim loses with a conflict", func(t *testing.T) {
		r := newApprovedRecord(t, contractID, serviceDate)
		require.NoError(t, repo.Save(ctx, r))

		require.NoError(t, repo.Claim(ctx, r.ID, uuid.New(), time.Now()))
		err := repo.Claim(ctx, r.ID, uuid.New(), time.Now())
		assert.True(t, shared.IsDomainError(err, shared.CodeConflict))

		// The first claim's link survives the losing attempt.
		found, findErr := repo.FindByID(ctx, r.ID)
		require.NoError(t, findErr)
		assert.Equal(t, billing.RecordStatusInvoiced, found.Status)
	})

	t.Run("draft records are not claimable", func(t *testing.T) {
		r := newTestRecord(t, contractID, serviceDate)
		require.NoError(t, repo.Save(ctx, r))

		err := repo.Claim(ctx, r.ID, uuid.New(), time.Now())
		assert.True(t, shared.IsDomainError(err, shared.CodeConflict))
	})

	t.Run("unknown record reports not found", func(t *testing.T) {
		err := repo.Claim(ctx, uuid.New(), uuid.New(), time.Now())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestServiceRecordRepository_ReleaseClaim(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormServiceRecordRepository(db)
	ctx := context.Background()

	contractID := uuid.New()
	serviceDate := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("releases a claimed record back to approved", func(t *testing.T) {
		r := newApprovedRecord(t, contractID, serviceDate)
		require.NoError(t, repo.Save(ctx, r))
		require.NoError(t, repo.Claim(ctx, r.ID, uuid.New(), time.Now()))

		require.NoError(t, repo.ReleaseClaim(ctx, r.ID))

		found, err := repo.FindByID(ctx, r.ID)
		require.NoError(t, err)
		assert.Equal(t, billing.RecordStatusApproved, found.Status)
		assert.Nil(t, found.InvoiceItemID)
		assert.Nil(t, found.InvoicedDate)
	})

	t.Run("unclaimed record reports invalid state", func(t *testing.T) {
		r := newApprovedRecord(t, contractID, serviceDate)
		require.NoError(t, repo.Save(ctx, r))

		err := repo.ReleaseClaim(ctx, r.ID)
		assert.True(t, shared.IsDomainError(err, shared.CodeInvalidState))
	})

	t.Run("unknown record reports not found", func(t *testing.T) {
		err := repo.ReleaseClaim(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestServiceRecordRepository_FindByContract(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormServiceRecordRepository(db)
	ctx := context.Background()

	contractID := uuid.New()
	for day := 1; day <= 3; day++ {
		r := newTestRecord(t, contractID, time.Date(2026, 5, day, 0, 0, 0, 0, time.UTC))
		require.NoError(t, repo.Save(ctx, r))
	}
	other := newTestRecord(t, uuid.New(), time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, other))

	page, err := repo.FindByContract(ctx, contractID, shared.Filter{Page: 1, PageSize: 2, OrderBy: "service_date", OrderDir: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 1, page.Items[0].ServiceDate.Day())
}

func TestServiceRecordRepository_Delete(t *testing.T) {
	db := openTestDB(t)
	repo := NewGormServiceRecordRepository(db)
	ctx := context.Background()

	r := newTestRecord(t, uuid.New(), time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, r))

	require.NoError(t, repo.Delete(ctx, r.ID))
	assert.ErrorIs(t, repo.Delete(ctx, r.ID), shared.ErrNotFound)
}
