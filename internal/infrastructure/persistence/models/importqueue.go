package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/econtract/backend/internal/domain/importqueue"
	"github.com/google/uuid"
)

// ImportBatchModel is the persistence model for the ImportBatch aggregate.
type ImportBatchModel struct {
	AggregateModel
	Name            string                  `gorm:"type:varchar(255)"`
	TotalFiles      int                     `gorm:"not null"`
	ProcessedFiles  int                     `gorm:"not null;default:0"`
	SuccessfulFiles int                     `gorm:"not null;default:0"`
	FailedFiles     int                     `gorm:"not null;default:0"`
	Status          importqueue.BatchStatus `gorm:"type:varchar(20);not null;index"`
	UploadedBy      uuid.UUID               `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (ImportBatchModel) TableName() string {
	return "import_batches"
}

// ToDomain converts the persistence model to a domain ImportBatch.
func (m *ImportBatchModel) ToDomain() *importqueue.ImportBatch {
	return &importqueue.ImportBatch{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		TotalFiles:        m.TotalFiles,
		ProcessedFiles:    m.ProcessedFiles,
		SuccessfulFiles:   m.SuccessfulFiles,
		FailedFiles:       m.FailedFiles,
		Status:            m.Status,
		UploadedBy:        m.UploadedBy,
	}
}

// FromDomain populates the persistence model from a domain ImportBatch.
func (m *ImportBatchModel) FromDomain(b *importqueue.ImportBatch) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.Name = b.Name
	m.TotalFiles = b.TotalFiles
	m.ProcessedFiles = b.ProcessedFiles
	m.SuccessfulFiles = b.SuccessfulFiles
	m.FailedFiles = b.FailedFiles
	m.Status = b.Status
	m.UploadedBy = b.UploadedBy
}

// ImportBatchModelFromDomain creates a new persistence model from a domain ImportBatch.
func ImportBatchModelFromDomain(b *importqueue.ImportBatch) *ImportBatchModel {
	m := &ImportBatchModel{}
	m.FromDomain(b)
	return m
}

// QueueItemModel is the persistence model for the QueueItem aggregate.
// ExtractedData is serialized to a JSON text column.
type QueueItemModel struct {
	AggregateModel
	BatchID       *uuid.UUID             `gorm:"type:uuid;index"`
	FileName      string                 `gorm:"type:varchar(255);not null"`
	StoragePath   string                 `gorm:"type:varchar(500);not null"`
	MimeType      string                 `gorm:"type:varchar(100)"`
	FileSize      int64                  `gorm:"not null;default:0"`
	Status        importqueue.ItemStatus `gorm:"type:varchar(20);not null;index"`
	ExtractedData string                 `gorm:"type:jsonb;default:'{}'"`
	ErrorMessage  string                 `gorm:"type:varchar(1000)"`
	ContractID    *uuid.UUID             `gorm:"type:uuid;index"`
	UploadedBy    uuid.UUID              `gorm:"type:uuid;not null"`
	ReviewedBy    *uuid.UUID             `gorm:"type:uuid"`
	ReviewedAt    *time.Time
}

// TableName returns the table name for GORM
func (QueueItemModel) TableName() string {
	return "import_queue_items"
}

// ToDomain converts the persistence model to a domain QueueItem. A stored
// extraction payload that fails to parse is a corrupted row and is reported
// rather than silently dropped.
func (m *QueueItemModel) ToDomain() (*importqueue.QueueItem, error) {
	item := &importqueue.QueueItem{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		BatchID:           m.BatchID,
		FileName:          m.FileName,
		StoragePath:       m.StoragePath,
		MimeType:          m.MimeType,
		FileSize:          m.FileSize,
		Status:            m.Status,
		ErrorMessage:      m.ErrorMessage,
		ContractID:        m.ContractID,
		UploadedBy:        m.UploadedBy,
		ReviewedBy:        m.ReviewedBy,
		ReviewedAt:        m.ReviewedAt,
	}
	if m.ExtractedData != "" && m.ExtractedData != "{}" {
		var data map[string]any
		if err := json.Unmarshal([]byte(m.ExtractedData), &data); err != nil {
			return nil, fmt.Errorf("decode extracted data for queue item %s: %w", m.ID, err)
		}
		item.ExtractedData = data
	}
	return item, nil
}

// FromDomain populates the persistence model from a domain QueueItem.
func (m *QueueItemModel) FromDomain(q *importqueue.QueueItem) error {
	m.FromDomainAggregateRoot(q.BaseAggregateRoot)
	m.BatchID = q.BatchID
	m.FileName = q.FileName
	m.StoragePath = q.StoragePath
	m.MimeType = q.MimeType
	m.FileSize = q.FileSize
	m.Status = q.Status
	m.ErrorMessage = q.ErrorMessage
	m.ContractID = q.ContractID
	m.UploadedBy = q.UploadedBy
	m.ReviewedBy = q.ReviewedBy
	m.ReviewedAt = q.ReviewedAt

	m.ExtractedData = "{}"
	if len(q.ExtractedData) > 0 {
		raw, err := json.Marshal(q.ExtractedData)
		if err != nil {
			return fmt.Errorf("encode extracted data for queue item %s: %w", q.ID, err)
		}
		m.ExtractedData = string(raw)
	}
	return nil
}

// QueueItemModelFromDomain creates a new persistence model from a domain QueueItem.
func QueueItemModelFromDomain(q *importqueue.QueueItem) (*QueueItemModel, error) {
	m := &QueueItemModel{}
	if err := m.FromDomain(q); err != nil {
		return nil, err
	}
	return m, nil
}
