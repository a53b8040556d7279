package importqueue

import (
	"time"

	"github.com/econtract/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ItemStatus represents the lifecycle status of one uploaded document
type ItemStatus string

const (
	ItemStatusPending    ItemStatus = "PENDING"
	ItemStatusProcessing ItemStatus = "PROCESSING"
	ItemStatusExtracted  ItemStatus = "EXTRACTED"
	ItemStatusApproved   ItemStatus = "APPROVED"
	ItemStatusRejected   ItemStatus = "REJECTED"
	ItemStatusCompleted  ItemStatus = "COMPLETED"
	ItemStatusError      ItemStatus = "ERROR"
)

// IsValid checks if the status is a valid queue item status
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusPending, ItemStatusProcessing, ItemStatusExtracted,
		ItemStatusApproved, ItemStatusRejected, ItemStatusCompleted, ItemStatusError:
		return true
	}
	return false
}

// IsSettled reports whether the item no longer counts as in flight for
// batch progress
func (s ItemStatus) IsSettled() bool {
	return s != ItemStatusPending && s != ItemStatusProcessing
}

// ExtractionSucceeded reports whether the item got past extraction. Review
// outcomes still count as successful extractions.
func (s ItemStatus) ExtractionSucceeded() bool {
	switch s {
	case ItemStatusExtracted, ItemStatusApproved, ItemStatusRejected, ItemStatusCompleted:
		return true
	}
	return false
}

// ERROR is re-enterable: an explicit reprocess action moves the item back to
// PROCESSING. There is no automatic retry.
var itemTransitions = map[ItemStatus][]ItemStatus{
	ItemStatusPending:    {ItemStatusProcessing},
	ItemStatusProcessing: {ItemStatusExtracted, ItemStatusError},
	ItemStatusExtracted:  {ItemStatusApproved, ItemStatusRejected},
	ItemStatusApproved:   {ItemStatusCompleted},
	ItemStatusRejected:   {},
	ItemStatusCompleted:  {},
	ItemStatusError:      {ItemStatusProcessing},
}

// CanTransitionTo reports whether the status may move to target
func (s ItemStatus) CanTransitionTo(target ItemStatus) bool {
	for _, allowed := range itemTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// QueueItem is one uploaded document moving through extraction, review and
// contract creation
type QueueItem struct {
	shared.BaseAggregateRoot
	BatchID       *uuid.UUID
	FileName      string
	StoragePath   string
	MimeType      string
	FileSize      int64
	Status        ItemStatus
	ExtractedData map[string]any
	ErrorMessage  string
	ContractID    *uuid.UUID
	UploadedBy    uuid.UUID
	ReviewedBy    *uuid.UUID
	ReviewedAt    *time.Time
}

// NewQueueItem creates a pending queue item for an uploaded file
func NewQueueItem(batchID *uuid.UUID, fileName, storagePath, mimeType string, fileSize int64, uploadedBy uuid.UUID) (*QueueItem, error) {
	if fileName == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "File name cannot be empty")
	}
	if storagePath == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Storage path cannot be empty")
	}
	if fileSize < 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "File size cannot be negative")
	}

	return &QueueItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BatchID:           batchID,
		FileName:          fileName,
		StoragePath:       storagePath,
		MimeType:          mimeType,
		FileSize:          fileSize,
		Status:            ItemStatusPending,
		UploadedBy:        uploadedBy,
	}, nil
}

// StartProcessing claims the item for extraction. It also serves as the
// explicit reprocess action for errored items, clearing the previous error.
func (q *QueueItem) StartProcessing() error {
	if err := q.transitionTo(ItemStatusProcessing); err != nil {
		return err
	}
	q.ErrorMessage = ""
	return nil
}

// CompleteExtraction stores the structured extraction result. An empty
// result map is valid; missing fields stay absent rather than failing.
func (q *QueueItem) CompleteExtraction(data map[string]any) error {
	if err := q.transitionTo(ItemStatusExtracted); err != nil {
		return err
	}
	q.ExtractedData = data
	return nil
}

// FailExtraction records the failure reason and parks the item in ERROR
// until an operator reprocesses it
func (q *QueueItem) FailExtraction(message string) error {
	if err := q.transitionTo(ItemStatusError); err != nil {
		return err
	}
	q.ErrorMessage = message
	return nil
}

// UpdateExtractedData replaces the extraction result with operator-corrected
// values. Only items awaiting review may be edited.
func (q *QueueItem) UpdateExtractedData(data map[string]any) error {
	if q.Status != ItemStatusExtracted {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Queue item %s cannot be edited in status %s", q.ID, q.Status)
	}
	q.ExtractedData = data
	q.Touch()
	return nil
}

// Approve accepts the extracted data for contract creation and records who
// reviewed it
func (q *QueueItem) Approve(reviewedBy uuid.UUID) error {
	if err := q.transitionTo(ItemStatusApproved); err != nil {
		return err
	}
	q.markReviewed(reviewedBy)
	return nil
}

// Reject discards the extracted data and records who reviewed it
func (q *QueueItem) Reject(reviewedBy uuid.UUID) error {
	if err := q.transitionTo(ItemStatusRejected); err != nil {
		return err
	}
	q.markReviewed(reviewedBy)
	return nil
}

func (q *QueueItem) markReviewed(reviewedBy uuid.UUID) {
	now := time.Now().UTC()
	q.ReviewedBy = &reviewedBy
	q.ReviewedAt = &now
}

// CompleteWithContract links the item to the contract created from it
func (q *QueueItem) CompleteWithContract(contractID uuid.UUID) error {
	if contractID == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidation, "Contract ID cannot be empty")
	}
	if err := q.transitionTo(ItemStatusCompleted); err != nil {
		return err
	}
	q.ContractID = &contractID
	return nil
}

func (q *QueueItem) transitionTo(target ItemStatus) error {
	if !q.Status.CanTransitionTo(target) {
		return shared.NewDomainErrorf(shared.CodeInvalidState,
			"Queue item %s cannot transition from %s to %s", q.ID, q.Status, target)
	}
	q.Status = target
	q.Touch()
	return nil
}
