package dto

import (
	"time"

	"github.com/econtract/backend/internal/domain/importqueue"
	"github.com/google/uuid"
)

// ImportBatchResponse is the API representation of an import batch
type ImportBatchResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name,omitempty"`
	TotalFiles      int       `json:"total_files"`
	ProcessedFiles  int       `json:"processed_files"`
	SuccessfulFiles int       `json:"successful_files"`
	FailedFiles     int       `json:"failed_files"`
	Status          string    `json:"status"`
	UploadedBy      uuid.UUID `json:"uploaded_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// QueueItemResponse is the API representation of an import queue item
type QueueItemResponse struct {
	ID            uuid.UUID      `json:"id"`
	BatchID       *uuid.UUID     `json:"batch_id,omitempty"`
	FileName      string         `json:"file_name"`
	MimeType      string         `json:"mime_type"`
	FileSize      int64          `json:"file_size"`
	Status        string         `json:"status"`
	ExtractedData map[string]any `json:"extracted_data,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	ContractID    *uuid.UUID     `json:"contract_id,omitempty"`
	UploadedBy    uuid.UUID      `json:"uploaded_by"`
	ReviewedBy    *uuid.UUID     `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time     `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ImportStatisticsResponse counts queue items per lifecycle status
type ImportStatisticsResponse struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Extracted  int64 `json:"extracted"`
	Approved   int64 `json:"approved"`
	Rejected   int64 `json:"rejected"`
	Completed  int64 `json:"completed"`
	Errored    int64 `json:"errored"`
	Total      int64 `json:"total"`
}

// UploadResponse groups the created batch with its queue items
type UploadResponse struct {
	Batch ImportBatchResponse `json:"batch"`
	Items []QueueItemResponse `json:"items"`
}

// DownloadLinkResponse carries a presigned download URL for a stored document
type DownloadLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FromImportBatch maps an import batch aggregate
func FromImportBatch(b *importqueue.ImportBatch) ImportBatchResponse {
	return ImportBatchResponse{
		ID:              b.ID,
		Name:            b.Name,
		TotalFiles:      b.TotalFiles,
		ProcessedFiles:  b.ProcessedFiles,
		SuccessfulFiles: b.SuccessfulFiles,
		FailedFiles:     b.FailedFiles,
		Status:          string(b.Status),
		UploadedBy:      b.UploadedBy,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// FromImportBatches maps a slice of import batches
func FromImportBatches(batches []*importqueue.ImportBatch) []ImportBatchResponse {
	out := make([]ImportBatchResponse, len(batches))
	for i, b := range batches {
		out[i] = FromImportBatch(b)
	}
	return out
}

// FromQueueItem maps a queue item aggregate. The storage path stays
// internal; downloads go through the download link endpoint instead.
func FromQueueItem(item *importqueue.QueueItem) QueueItemResponse {
	return QueueItemResponse{
		ID:            item.ID,
		BatchID:       item.BatchID,
		FileName:      item.FileName,
		MimeType:      item.MimeType,
		FileSize:      item.FileSize,
		Status:        string(item.Status),
		ExtractedData: item.ExtractedData,
		ErrorMessage:  item.ErrorMessage,
		ContractID:    item.ContractID,
		UploadedBy:    item.UploadedBy,
		ReviewedBy:    item.ReviewedBy,
		ReviewedAt:    item.ReviewedAt,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

// FromQueueItems maps a slice of queue items
func FromQueueItems(items []*importqueue.QueueItem) []QueueItemResponse {
	out := make([]QueueItemResponse, len(items))
	for i, item := range items {
		out[i] = FromQueueItem(item)
	}
	return out
}
