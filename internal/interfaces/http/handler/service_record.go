package handler

import (
	"context"
	"time"

	billingapp "github.com/econtract/backend/internal/application/billing"
	"github.com/econtract/backend/internal/domain/billing"
	"github.com/econtract/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceRecordHandler exposes the billable service record endpoints
type ServiceRecordHandler struct {
	BaseHandler
	records *billingapp.ServiceRecordService
}

// NewServiceRecordHandler creates a new ServiceRecordHandler
func NewServiceRecordHandler(records *billingapp.ServiceRecordService) *ServiceRecordHandler {
	return &ServiceRecordHandler{records: records}
}

// RegisterRoutes registers the service record routes on the given group
func (h *ServiceRecordHandler) RegisterRoutes(rg *gin.RouterGroup) {
	records := rg.Group("/service-records")
	records.POST("", h.Create)
	records.GET("/:id", h.Get)
	records.PUT("/:id", h.Update)
	records.POST("/:id/approve", h.Approve)
	records.POST("/:id/reject", h.Reject)
	records.DELETE("/:id", h.Delete)

	contracts := rg.Group("/contracts/:id")
	contracts.GET("/service-records", h.ListByContract)
	contracts.GET("/service-records/uninvoiced", h.ListUninvoiced)
}

// CreateRecordRequest is the request body for recording billable work. A
// missing unit price asks the contract's price rules for the effective rate.
type CreateRecordRequest struct {
	ContractID  string           `json:"contract_id" binding:"required,uuid"`
	ServiceDate time.Time        `json:"service_date" binding:"required"`
	Category    string           `json:"category" binding:"required,max=100"`
	Description string           `json:"description" binding:"max=1000"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Unit        string           `json:"unit" binding:"max=50"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
}

// UpdateRecordRequest is the request body for correcting a record
type UpdateRecordRequest struct {
	ServiceDate time.Time       `json:"service_date" binding:"required"`
	Category    string          `json:"category" binding:"required,max=100"`
	Description string          `json:"description" binding:"max=1000"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit" binding:"max=50"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// Create handles POST /service-records
func (h *ServiceRecordHandler) Create(c *gin.Context) {
	var req CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	contractID, err := parseUUID(req.ContractID)
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	createdBy, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing user identity")
		return
	}

	record, err := h.records.CreateRecord(c.Request.Context(), billingapp.CreateRecordRequest{
		ContractID:  contractID,
		ServiceDate: req.ServiceDate,
		Category:    req.Category,
		Description: req.Description,
		Quantity:    req.Quantity,
		Unit:        req.Unit,
		UnitPrice:   req.UnitPrice,
		CreatedBy:   createdBy,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromServiceRecord(record))
}

// Get handles GET /service-records/:id
func (h *ServiceRecordHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid record ID")
		return
	}
	record, err := h.records.GetRecord(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromServiceRecord(record))
}

// ListByContract handles GET /contracts/:id/service-records
func (h *ServiceRecordHandler) ListByContract(c *gin.Context) {
	contractID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.records.ListRecordsByContract(c.Request.Context(), contractID, query.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page, dto.FromServiceRecords(page.Items))
}

// ListUninvoiced handles GET /contracts/:id/service-records/uninvoiced
func (h *ServiceRecordHandler) ListUninvoiced(c *gin.Context) {
	contractID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	records, err := h.records.ListUninvoicedRecords(c.Request.Context(), contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromServiceRecords(records))
}

// Update handles PUT /service-records/:id
func (h *ServiceRecordHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid record ID")
		return
	}
	var req UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	record, err := h.records.UpdateRecord(c.Request.Context(), id,
		req.ServiceDate, req.Category, req.Description, req.Quantity, req.Unit, req.UnitPrice)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromServiceRecord(record))
}

// Approve handles POST /service-records/:id/approve
func (h *ServiceRecordHandler) Approve(c *gin.Context) {
	h.transition(c, h.records.ApproveRecord)
}

// Reject handles POST /service-records/:id/reject
func (h *ServiceRecordHandler) Reject(c *gin.Context) {
	h.transition(c, h.records.RejectRecord)
}

func (h *ServiceRecordHandler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) (*billing.ServiceRecord, error)) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid record ID")
		return
	}
	record, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromServiceRecord(record))
}

// Delete handles DELETE /service-records/:id
func (h *ServiceRecordHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid record ID")
		return
	}
	if err := h.records.DeleteRecord(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
