package importqueue

import (
	"github.com/econtract/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BatchStatus represents the aggregate status of an import batch
type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "PENDING"
	BatchStatusProcessing BatchStatus = "PROCESSING"
	BatchStatusCompleted  BatchStatus = "COMPLETED"
)

// IsValid checks if the status is a valid batch status
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusPending, BatchStatusProcessing, BatchStatusCompleted:
		return true
	}
	return false
}

// IsTerminal returns true once the batch finished processing
func (s BatchStatus) IsTerminal() bool {
	return s == BatchStatusCompleted
}

// ImportBatch aggregates the progress of N uploaded files. Its counters are
// always recomputed from the current item states, never incremented, so the
// rollup stays correct no matter how often or in which order items settle.
type ImportBatch struct {
	shared.BaseAggregateRoot
	Name            string
	TotalFiles      int
	ProcessedFiles  int
	SuccessfulFiles int
	FailedFiles     int
	Status          BatchStatus
	UploadedBy      uuid.UUID
}

// NewImportBatch creates a pending batch expecting totalFiles uploads
func NewImportBatch(name string, totalFiles int, uploadedBy uuid.UUID) (*ImportBatch, error) {
	if totalFiles <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Batch must contain at least one file")
	}

	return &ImportBatch{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		TotalFiles:        totalFiles,
		Status:            BatchStatusPending,
		UploadedBy:        uploadedBy,
	}, nil
}

// Start moves the batch to PROCESSING when the first item is picked up
func (b *ImportBatch) Start() error {
	if b.Status != BatchStatusPending {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Import batch %s cannot start from status %s", b.ID, b.Status)
	}
	b.Status = BatchStatusProcessing
	b.Touch()
	return nil
}

// Recompute derives the progress counters and batch status from the current
// item statuses. The batch completes once every file settles, regardless of
// how many failed; item failure is visible through FailedFiles only.
func (b *ImportBatch) Recompute(statuses []ItemStatus) {
	processed, successful, failed := 0, 0, 0
	for _, s := range statuses {
		if !s.IsSettled() {
			continue
		}
		processed++
		if s == ItemStatusError {
			failed++
		} else if s.ExtractionSucceeded() {
			successful++
		}
	}
	if processed > b.TotalFiles {
		processed = b.TotalFiles
	}

	b.ProcessedFiles = processed
	b.SuccessfulFiles = successful
	b.FailedFiles = failed

	if processed == b.TotalFiles {
		b.Status = BatchStatusCompleted
	} else if processed > 0 || b.Status == BatchStatusProcessing {
		b.Status = BatchStatusProcessing
	}
	b.Touch()
}
