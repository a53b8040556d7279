package handler

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	importapp "github.com/econtract/backend/internal/application/import"
	"github.com/econtract/backend/internal/domain/importqueue"
	"github.com/econtract/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DownloadPresigner is implemented by storage backends that can hand out
// time limited download URLs. The local filesystem backend cannot, in
// which case documents are streamed through the API instead.
type DownloadPresigner interface {
	PresignDownload(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

const presignExpiry = 15 * time.Minute

// ImportHandler handles the contract import endpoints
type ImportHandler struct {
	BaseHandler
	imports   *importapp.ContractImportService
	storage   importapp.FileStorage
	presigner DownloadPresigner
}

// NewImportHandler creates a new ImportHandler. presigner may be nil when
// the storage backend cannot presign URLs.
func NewImportHandler(imports *importapp.ContractImportService, storage importapp.FileStorage, presigner DownloadPresigner) *ImportHandler {
	return &ImportHandler{imports: imports, storage: storage, presigner: presigner}
}

// RegisterRoutes registers the import routes on the given group
func (h *ImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	batches := rg.Group("/import/batches")
	batches.POST("", h.Upload)
	batches.GET("", h.ListBatches)
	batches.GET("/:id", h.GetBatch)
	batches.POST("/:id/process", h.Process)
	batches.GET("/:id/items", h.ListItems)

	items := rg.Group("/import/items")
	items.GET("/:id", h.GetItem)
	items.POST("/:id/reprocess", h.Reprocess)
	items.PUT("/:id/data", h.UpdateData)
	items.POST("/:id/approve", h.Approve)
	items.POST("/:id/reject", h.Reject)
	items.POST("/:id/contract", h.CreateContract)
	items.GET("/:id/download", h.Download)

	rg.GET("/import/queue", h.WorkQueue)
	rg.GET("/import/stats", h.Statistics)
}

// Upload handles POST /import/batches. The request is multipart form data
// with a "name" field and one or more "files" parts.
func (h *ImportHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.BadRequest(c, "Invalid multipart request")
		return
	}
	name := c.PostForm("name")
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		h.BadRequest(c, "At least one file is required")
		return
	}

	files := make([]importapp.UploadFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		content, err := readUpload(fh)
		if err != nil {
			h.BadRequest(c, "Failed to read uploaded file "+fh.Filename)
			return
		}
		files = append(files, importapp.UploadFile{
			FileName: fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Content:  content,
		})
	}

	uploadedBy, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-User-ID header")
		return
	}

	batch, items, err := h.imports.UploadBatch(c.Request.Context(), name, files, uploadedBy)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.UploadResponse{
		Batch: dto.FromImportBatch(batch),
		Items: dto.FromQueueItems(items),
	})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Process handles POST /import/batches/:id/process
func (h *ImportHandler) Process(c *gin.Context) {
	batchID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return
	}
	batch, err := h.imports.ProcessBatch(c.Request.Context(), batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromImportBatch(batch))
}

// GetBatch handles GET /import/batches/:id
func (h *ImportHandler) GetBatch(c *gin.Context) {
	batchID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return
	}
	batch, err := h.imports.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromImportBatch(batch))
}

// ListItems handles GET /import/batches/:id/items
func (h *ImportHandler) ListItems(c *gin.Context) {
	batchID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return
	}
	items, err := h.imports.ListBatchItems(c.Request.Context(), batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromQueueItems(items))
}

// GetItem handles GET /import/items/:id
func (h *ImportHandler) GetItem(c *gin.Context) {
	h.itemAction(c, h.imports.GetItem)
}

// Reprocess handles POST /import/items/:id/reprocess
func (h *ImportHandler) Reprocess(c *gin.Context) {
	h.itemAction(c, h.imports.ReprocessItem)
}

// Approve handles POST /import/items/:id/approve
func (h *ImportHandler) Approve(c *gin.Context) {
	h.reviewAction(c, h.imports.ApproveItem)
}

// Reject handles POST /import/items/:id/reject
func (h *ImportHandler) Reject(c *gin.Context) {
	h.reviewAction(c, h.imports.RejectItem)
}

// UpdateDataRequest carries reviewer corrections to the extracted field map
type UpdateDataRequest struct {
	ExtractedData map[string]any `json:"extracted_data" binding:"required"`
}

// UpdateData handles PUT /import/items/:id/data
func (h *ImportHandler) UpdateData(c *gin.Context) {
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}
	var req UpdateDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	item, err := h.imports.UpdateItemData(c.Request.Context(), itemID, req.ExtractedData)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromQueueItem(item))
}

func (h *ImportHandler) reviewAction(c *gin.Context, fn func(ctx context.Context, itemID, reviewedBy uuid.UUID) (*importqueue.QueueItem, error)) {
	reviewedBy, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-User-ID header")
		return
	}
	h.itemAction(c, func(ctx context.Context, id uuid.UUID) (*importqueue.QueueItem, error) {
		return fn(ctx, id, reviewedBy)
	})
}

func (h *ImportHandler) itemAction(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*importqueue.QueueItem, error)) {
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}
	item, err := fn(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromQueueItem(item))
}

// CreateContractFromItemRequest carries the reviewed contract fields for an
// approved queue item
type CreateContractFromItemRequest struct {
	ContractNumber string    `json:"contract_number" binding:"required,max=50"`
	Title          string    `json:"title" binding:"required,max=255"`
	ContractType   string    `json:"contract_type" binding:"required,max=50"`
	PartnerName    string    `json:"partner_name" binding:"required,max=255"`
	OwnerUserID    uuid.UUID `json:"owner_user_id" binding:"required"`
}

// CreateContract handles POST /import/items/:id/contract
func (h *ImportHandler) CreateContract(c *gin.Context) {
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}
	var req CreateContractFromItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	createdBy, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing X-User-ID header")
		return
	}

	created, err := h.imports.CreateContractFromItem(c.Request.Context(), itemID, importapp.CreateContractRequest{
		ContractNumber: req.ContractNumber,
		Title:          req.Title,
		ContractType:   req.ContractType,
		PartnerName:    req.PartnerName,
		OwnerUserID:    req.OwnerUserID,
		CreatedBy:      createdBy,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromContract(created))
}

// ListBatches handles GET /import/batches, the import history
func (h *ImportHandler) ListBatches(c *gin.Context) {
	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	page, err := h.imports.ListBatches(c.Request.Context(), query.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page, dto.FromImportBatches(page.Items))
}

// WorkQueue handles GET /import/queue, the items awaiting review
func (h *ImportHandler) WorkQueue(c *gin.Context) {
	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	page, err := h.imports.ListWorkQueue(c.Request.Context(), query.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page, dto.FromQueueItems(page.Items))
}

// Statistics handles GET /import/stats
func (h *ImportHandler) Statistics(c *gin.Context) {
	stats, err := h.imports.Statistics(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ImportStatisticsResponse{
		Pending:    stats.Pending,
		Processing: stats.Processing,
		Extracted:  stats.Extracted,
		Approved:   stats.Approved,
		Rejected:   stats.Rejected,
		Completed:  stats.Completed,
		Errored:    stats.Errored,
		Total:      stats.Total,
	})
}

// Download handles GET /import/items/:id/download. With an S3 backend the
// response is a presigned URL; on local storage the document is streamed.
func (h *ImportHandler) Download(c *gin.Context) {
	itemID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}
	item, err := h.imports.GetItem(c.Request.Context(), itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if h.presigner != nil {
		url, expiresAt, err := h.presigner.PresignDownload(c.Request.Context(), item.StoragePath, presignExpiry)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, dto.DownloadLinkResponse{URL: url, ExpiresAt: expiresAt})
		return
	}

	data, err := h.storage.Get(c.Request.Context(), item.StoragePath)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+item.FileName+`"`)
	c.Data(http.StatusOK, item.MimeType, data)
}
