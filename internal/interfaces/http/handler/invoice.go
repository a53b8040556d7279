package handler

import (
	"time"

	billingapp "github.com/econtract/backend/internal/application/billing"
	"github.com/econtract/backend/internal/domain/billing"
	"github.com/econtract/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// InvoiceHandler exposes the invoice assembly and lifecycle endpoints
type InvoiceHandler struct {
	BaseHandler
	invoices *billingapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices *billingapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// RegisterRoutes registers the invoice routes on the given group
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	invoices.POST("", h.CreateFromRecords)
	invoices.GET("", h.List)
	invoices.GET("/overdue", h.ListOverdue)
	invoices.GET("/:id", h.Get)
	invoices.POST("/:id/items", h.AddItem)
	invoices.DELETE("/:id/items/:itemID", h.RemoveItem)
	invoices.PUT("/:id/discount", h.SetDiscount)
	invoices.POST("/:id/transition", h.Transition)

	rg.GET("/contracts/:id/invoices", h.ListByContract)
}

// CreateFromRecordsRequest is the request body for assembling an invoice
// from approved service records
type CreateFromRecordsRequest struct {
	ContractID string           `json:"contract_id" binding:"required,uuid"`
	RecordIDs  []string         `json:"record_ids" binding:"required,min=1,dive,uuid"`
	TaxRate    *decimal.Decimal `json:"tax_rate"`
}

// AddItemRequest is the request body for a manual invoice line item
type AddItemRequest struct {
	Description string          `json:"description" binding:"required,max=1000"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit" binding:"max=50"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
}

// SetDiscountRequest is the request body for a header-level discount.
// Percentage and amount are mutually exclusive.
type SetDiscountRequest struct {
	Percentage *decimal.Decimal `json:"percentage"`
	Amount     *decimal.Decimal `json:"amount"`
}

// CreateFromRecords handles POST /invoices
func (h *InvoiceHandler) CreateFromRecords(c *gin.Context) {
	var req CreateFromRecordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	contractID, err := parseUUID(req.ContractID)
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	recordIDs, err := parseUUIDs(req.RecordIDs)
	if err != nil {
		h.BadRequest(c, "Invalid record ID")
		return
	}
	createdBy, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing user identity")
		return
	}

	invoice, err := h.invoices.CreateFromServiceRecords(c.Request.Context(), billingapp.CreateFromRecordsRequest{
		ContractID: contractID,
		RecordIDs:  recordIDs,
		TaxRate:    req.TaxRate,
		CreatedBy:  createdBy,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromInvoice(invoice))
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	invoice, err := h.invoices.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromInvoice(invoice))
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	page, err := h.invoices.ListInvoices(c.Request.Context(), query.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page, dto.FromInvoices(page.Items))
}

// ListByContract handles GET /contracts/:id/invoices
func (h *InvoiceHandler) ListByContract(c *gin.Context) {
	contractID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	invoices, err := h.invoices.ListInvoicesByContract(c.Request.Context(), contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromInvoices(invoices))
}

// ListOverdue handles GET /invoices/overdue. An as_of query parameter moves
// the reference date; it defaults to now.
func (h *InvoiceHandler) ListOverdue(c *gin.Context) {
	asOf := time.Now()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.BadRequest(c, "Invalid as_of date, expected YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	invoices, err := h.invoices.ListOverdueInvoices(c.Request.Context(), asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromInvoices(invoices))
}

// AddItem handles POST /invoices/:id/items
func (h *InvoiceHandler) AddItem(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.AddItem(c.Request.Context(), id,
		req.Description, req.Quantity, req.Unit, req.UnitPrice, req.Discount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromInvoice(invoice))
}

// RemoveItem handles DELETE /invoices/:id/items/:itemID
func (h *InvoiceHandler) RemoveItem(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	itemID, err := parseIDParam(c, "itemID")
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	invoice, err := h.invoices.RemoveItem(c.Request.Context(), id, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromInvoice(invoice))
}

// SetDiscount handles PUT /invoices/:id/discount
func (h *InvoiceHandler) SetDiscount(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	var req SetDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.SetDiscount(c.Request.Context(), id, req.Percentage, req.Amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromInvoice(invoice))
}

// Transition handles POST /invoices/:id/transition
func (h *InvoiceHandler) Transition(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.TransitionInvoice(c.Request.Context(), id, billing.InvoiceStatus(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromInvoice(invoice))
}
