package billing

import (
	"context"
	"testing"
	"time"

	"github.com/econtract/backend/internal/domain/billing"
	"github.com/econtract/backend/internal/domain/contract"
	"github.com/econtract/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockContractRepository is a mock implementation of contract.Repository
type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) Save(ctx context.Context, c *contract.Contract) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *MockContractRepository) FindByContractNumber(ctx context.Context, contractNumber string) (*contract.Contract, error) {
	args := m.Called(ctx, contractNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*contract.Contract), args.Error(1)
}

func (m *MockContractRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*contract.Contract], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*contract.Contract]), args.Error(1)
}

func (m *MockContractRepository) FindByStatus(ctx context.Context, status contract.Status, filter shared.Filter) (*shared.Paginated[*contract.Contract], error) {
	args := m.Called(ctx, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*contract.Contract]), args.Error(1)
}

func (m *MockContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockServiceRecordRepository is a mock implementation of billing.ServiceRecordRepository
type MockServiceRecordRepository struct {
	mock.Mock
}

func (m *MockServiceRecordRepository) Save(ctx context.Context, record *billing.ServiceRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockServiceRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.ServiceRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.ServiceRecord), args.Error(1)
}

func (m *MockServiceRecordRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*billing.ServiceRecord, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.ServiceRecord), args.Error(1)
}

func (m *MockServiceRecordRepository) FindByContract(ctx context.Context, contractID uuid.UUID, filter shared.Filter) (*shared.Paginated[*billing.ServiceRecord], error) {
	args := m.Called(ctx, contractID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*billing.ServiceRecord]), args.Error(1)
}

func (m *MockServiceRecordRepository) FindUninvoicedByContract(ctx context.Context, contractID uuid.UUID) ([]*billing.ServiceRecord, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.ServiceRecord), args.Error(1)
}

func (m *MockServiceRecordRepository) Claim(ctx context.Context, recordID, invoiceItemID uuid.UUID, invoicedDate time.Time) error {
	args := m.Called(ctx, recordID, invoiceItemID, invoicedDate)
	return args.Error(0)
}

func (m *MockServiceRecordRepository) ReleaseClaim(ctx context.Context, recordID uuid.UUID) error {
	args := m.Called(ctx, recordID)
	return args.Error(0)
}

func (m *MockServiceRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockInvoiceRepository is a mock implementation of billing.InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*billing.Invoice, error) {
	args := m.Called(ctx, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[*billing.Invoice], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[*billing.Invoice]), args.Error(1)
}

func (m *MockInvoiceRepository) FindByContract(ctx context.Context, contractID uuid.UUID) ([]*billing.Invoice, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindScheduledByContract(ctx context.Context, contractID uuid.UUID) ([]*billing.Invoice, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) DeleteScheduledByContract(ctx context.Context, contractID uuid.UUID) (int64, error) {
	args := m.Called(ctx, contractID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) FindOverdue(ctx context.Context, asOf time.Time) ([]*billing.Invoice, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockNumberSequence is a mock implementation of billing.NumberSequence
type MockNumberSequence struct {
	mock.Mock
}

func (m *MockNumberSequence) Next(ctx context.Context, scope string) (int64, error) {
	args := m.Called(ctx, scope)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNumberSequence) Reset(ctx context.Context, scope string) error {
	args := m.Called(ctx, scope)
	return args.Error(0)
}

func testContract(t *testing.T) *contract.Contract {
	t.Helper()
	c, err := contract.NewContract("C-2025-0007", "Support Agreement", "SERVICE", "Acme GmbH", uuid.New(), uuid.New())
	require.NoError(t, err)
	return c
}

func approvedRecord(t *testing.T, contractID uuid.UUID, serviceDate time.Time, qty, price string) *billing.ServiceRecord {
	t.Helper()
	r, err := billing.NewServiceRecord(contractID, serviceDate, "SUPPORT", "support work",
		decimal.RequireFromString(qty), "hour", decimal.RequireFromString(price), uuid.New())
	require.NoError(t, err)
	require.NoError(t, r.Approve())
	return r
}

func newInvoiceService(contractRepo *MockContractRepository, recordRepo *MockServiceRecordRepository, invoiceRepo *MockInvoiceRepository, seq *MockNumberSequence) *InvoiceService {
	return NewInvoiceService(contractRepo, recordRepo, invoiceRepo, seq, zap.NewNop())
}

func TestCreateFromServiceRecords(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC) }

	t.Run("assembles invoice spanning the service dates", func(t *testing.T) {
		contractRepo := new(MockContractRepository)
		recordRepo := new(MockServiceRecordRepository)
		invoiceRepo := new(MockInvoiceRepository)
		seq := new(MockNumberSequence)
		svc := newInvoiceService(contractRepo, recordRepo, invoiceRepo, seq)

		c := testContract(t)
		r1 := approvedRecord(t, c.ID, day(20), "2", "100.00")
		r2 := approvedRecord(t, c.ID, day(5), "3", "19.995")

		contractRepo.On("FindByID", mock.Anything, c.ID).Return(c, nil)
		recordRepo.On("FindByIDs", mock.Anything, []uuid.UUID{r1.ID, r2.ID}).
			Return([]*billing.ServiceRecord{r1, r2}, nil)
		seq.On("Next", mock.Anything, mock.Anything).Return(int64(12), nil)
		recordRepo.On("Claim", mock.Anything, r1.ID, mock.Anything, mock.Anything).Return(nil)
		recordRepo.On("Claim", mock.Anything, r2.ID, mock.Anything, mock.Anything).Return(nil)
		invoiceRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		inv, err := svc.CreateFromServiceRecords(context.Background(), CreateFromRecordsRequest{
			ContractID: c.ID,
			RecordIDs:  []uuid.UUID{r1.ID, r2.ID},
			CreatedBy:  uuid.New(),
		})
		require.NoError(t, err)

		require.Len(t, inv.Items, 2)
		assert.Equal(t, 1, inv.Items[0].Position)
		assert.Equal(t, r1.ID, *inv.Items[0].ServiceRecordID, "items follow input order")
		assert.Equal(t, day(5), *inv.BillingPeriodStart)
		assert.Equal(t, day(20), *inv.BillingPeriodEnd)
		assert.Equal(t, billing.InvoiceStatusDraft, inv.Status)
		assert.Contains(t, inv.InvoiceNumber, "INV-")
		assert.True(t, inv.SubtotalNet.Add(inv.TaxAmount).Equal(inv.TotalGross))
		invoiceRepo.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("unapproved record aborts before any claim", func(t *testing.T) {
		contractRepo := new(MockContractRepository)
		recordRepo := new(MockServiceRecordRepository)
		invoiceRepo := new(MockInvoiceRepository)
		seq := new(MockNumberSequence)
		svc := newInvoiceService(contractRepo, recordRepo, invoiceRepo, seq)

		c := testContract(t)
		good := approvedRecord(t, c.ID, day(5), "1", "50.00")
		draft, err := billing.NewServiceRecord(c.ID, day(6), "SUPPORT", "",
			decimal.NewFromInt(1), "hour", decimal.NewFromInt(50), uuid.New())
		require.NoError(t, err)

		contractRepo.On("FindByID", mock.Anything, c.ID).Return(c, nil)
		recordRepo.On("FindByIDs", mock.Anything, mock.Anything).
			Return([]*billing.ServiceRecord{good, draft}, nil)

		_, err = svc.CreateFromServiceRecords(context.Background(), CreateFromRecordsRequest{
			ContractID: c.ID,
			RecordIDs:  []uuid.UUID{good.ID, draft.ID},
			CreatedBy:  uuid.New(),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Contains(t, err.Error(), draft.ID.String(), "error names the offending record")
		recordRepo.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("missing record fails with not found", func(t *testing.T) {
		contractRepo := new(MockContractRepository)
		recordRepo := new(MockServiceRecordRepository)
		invoiceRepo := new(MockInvoiceRepository)
		seq := new(MockNumberSequence)
		svc := newInvoiceService(contractRepo, recordRepo, invoiceRepo, seq)

		c := testContract(t)
		missing := uuid.New()

		contractRepo.On("FindByID", mock.Anything, c.ID).Return(c, nil)
		recordRepo.On("FindByIDs", mock.Anything, mock.Anything).
			Return([]*billing.ServiceRecord{}, nil)

		_, err := svc.CreateFromServiceRecords(context.Background(), CreateFromRecordsRequest{
			ContractID: c.ID,
			RecordIDs:  []uuid.UUID{missing},
			CreatedBy:  uuid.New(),
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("lost claim race releases earlier claims", func(t *testing.T) {
		contractRepo := new(MockContractRepository)
		recordRepo := new(MockServiceRecordRepository)
		invoiceRepo := new(MockInvoiceRepository)
		seq := new(MockNumberSequence)
		svc := newInvoiceService(contractRepo, recordRepo, invoiceRepo, seq)

		c := testContract(t)
		r1 := approvedRecord(t, c.ID, day(5), "1", "50.00")
		r2 := approvedRecord(t, c.ID, day(6), "1", "50.00")

		contractRepo.On("FindByID", mock.Anything, c.ID).Return(c, nil)
		recordRepo.On("FindByIDs", mock.Anything, mock.Anything).
			Return([]*billing.ServiceRecord{r1, r2}, nil)
		seq.On("Next", mock.Anything, mock.Anything).Return(int64(13), nil)
		recordRepo.On("Claim", mock.Anything, r1.ID, mock.Anything, mock.Anything).Return(nil)
		recordRepo.On("Claim", mock.Anything, r2.ID, mock.Anything, mock.Anything).
			Return(shared.NewDomainErrorf(shared.CodeConflict, "Service record %s is already claimed", r2.ID))
		recordRepo.On("ReleaseClaim", mock.Anything, r1.ID).Return(nil)

		_, err := svc.CreateFromServiceRecords(context.Background(), CreateFromRecordsRequest{
			ContractID: c.ID,
			RecordIDs:  []uuid.UUID{r1.ID, r2.ID},
			CreatedBy:  uuid.New(),
		})
		assert.ErrorIs(t, err, shared.ErrConflict)
		recordRepo.AssertCalled(t, "ReleaseClaim", mock.Anything, r1.ID)
		invoiceRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("empty record list is rejected", func(t *testing.T) {
		svc := newInvoiceService(new(MockContractRepository), new(MockServiceRecordRepository),
			new(MockInvoiceRepository), new(MockNumberSequence))

		_, err := svc.CreateFromServiceRecords(context.Background(), CreateFromRecordsRequest{
			ContractID: uuid.New(),
			CreatedBy:  uuid.New(),
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestRemoveItemReleasesClaim(t *testing.T) {
	recordRepo := new(MockServiceRecordRepository)
	invoiceRepo := new(MockInvoiceRepository)
	svc := newInvoiceService(new(MockContractRepository), recordRepo, invoiceRepo, new(MockNumberSequence))

	inv, err := billing.NewInvoice("INV-2025-0021", billing.InvoiceTypeCollective, "Acme GmbH",
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC),
		billing.DefaultTaxRatePct, uuid.New())
	require.NoError(t, err)
	recordID := uuid.New()
	item, err := inv.AddItem(&recordID, "work", decimal.NewFromInt(1), "piece",
		decimal.NewFromInt(10), decimal.Zero, nil, nil)
	require.NoError(t, err)

	invoiceRepo.On("FindByID", mock.Anything, inv.ID).Return(inv, nil)
	invoiceRepo.On("Save", mock.Anything, inv).Return(nil)
	recordRepo.On("ReleaseClaim", mock.Anything, recordID).Return(nil)

	_, err = svc.RemoveItem(context.Background(), inv.ID, item.ID)
	require.NoError(t, err)
	recordRepo.AssertCalled(t, "ReleaseClaim", mock.Anything, recordID)
}
