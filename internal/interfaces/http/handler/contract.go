package handler

import (
	"time"

	contractapp "github.com/econtract/backend/internal/application/contract"
	"github.com/econtract/backend/internal/domain/contract"
	"github.com/econtract/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractHandler exposes the contract lifecycle endpoints
type ContractHandler struct {
	BaseHandler
	contracts *contractapp.ContractService
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(contracts *contractapp.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

// RegisterRoutes registers the contract routes on the given group
func (h *ContractHandler) RegisterRoutes(rg *gin.RouterGroup) {
	contracts := rg.Group("/contracts")
	contracts.POST("", h.Create)
	contracts.GET("", h.List)
	contracts.GET("/:id", h.Get)
	contracts.PUT("/:id", h.Update)
	contracts.PUT("/:id/billing-terms", h.UpdateBillingTerms)
	contracts.POST("/:id/transition", h.Transition)
	contracts.DELETE("/:id", h.Delete)
}

// CreateContractRequest is the request body for creating a contract
type CreateContractRequest struct {
	ContractNumber string     `json:"contract_number" binding:"required,max=100"`
	Title          string     `json:"title" binding:"required,max=500"`
	ContractType   string     `json:"contract_type" binding:"max=100"`
	PartnerName    string     `json:"partner_name" binding:"required,max=200"`
	PartnerID      *uuid.UUID `json:"partner_id"`
	Department     string     `json:"department" binding:"max=200"`
	StartDate      *time.Time `json:"start_date"`
	EndDate        *time.Time `json:"end_date"`
	OwnerUserID    uuid.UUID  `json:"owner_user_id" binding:"required"`
}

// UpdateContractRequest is the request body for updating contract details
type UpdateContractRequest struct {
	Title        string     `json:"title" binding:"required,max=500"`
	ContractType string     `json:"contract_type" binding:"max=100"`
	PartnerName  string     `json:"partner_name" binding:"required,max=200"`
	Department   string     `json:"department" binding:"max=200"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
}

// BillingTermsRequest is the request body for configuring billing
type BillingTermsRequest struct {
	BillingCycle     *string          `json:"billing_cycle" binding:"omitempty,oneof=MONTHLY QUARTERLY YEARLY ONE_TIME"`
	BillingAmount    *decimal.Decimal `json:"billing_amount"`
	BillingStartDate *time.Time       `json:"billing_start_date"`
	PaymentTermDays  int              `json:"payment_term_days" binding:"omitempty,min=1,max=365"`
}

// TransitionRequest is the request body for a status transition
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// Create handles POST /contracts
func (h *ContractHandler) Create(c *gin.Context) {
	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	createdBy, err := getUserID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing user identity")
		return
	}

	created, err := h.contracts.CreateContract(c.Request.Context(), contractapp.CreateContractRequest{
		ContractNumber: req.ContractNumber,
		Title:          req.Title,
		ContractType:   req.ContractType,
		PartnerName:    req.PartnerName,
		PartnerID:      req.PartnerID,
		Department:     req.Department,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		OwnerUserID:    req.OwnerUserID,
		CreatedBy:      createdBy,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromContract(created))
}

// Get handles GET /contracts/:id
func (h *ContractHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	found, err := h.contracts.GetContract(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromContract(found))
}

// List handles GET /contracts. A status query parameter narrows the page to
// a single lifecycle status.
func (h *ContractHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	filter := query.Filter()

	if status := c.Query("status"); status != "" {
		page, err := h.contracts.ListContractsByStatus(c.Request.Context(), contract.Status(status), filter)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		Page(c, page, dto.FromContracts(page.Items))
		return
	}

	page, err := h.contracts.ListContracts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page, dto.FromContracts(page.Items))
}

// Update handles PUT /contracts/:id
func (h *ContractHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	var req UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	updated, err := h.contracts.UpdateContract(c.Request.Context(), id, contractapp.UpdateContractRequest{
		Title:        req.Title,
		ContractType: req.ContractType,
		PartnerName:  req.PartnerName,
		Department:   req.Department,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromContract(updated))
}

// UpdateBillingTerms handles PUT /contracts/:id/billing-terms
func (h *ContractHandler) UpdateBillingTerms(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	var req BillingTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := contractapp.BillingTermsRequest{
		BillingAmount:    req.BillingAmount,
		BillingStartDate: req.BillingStartDate,
		PaymentTermDays:  req.PaymentTermDays,
	}
	if req.BillingCycle != nil {
		cycle := contract.BillingCycle(*req.BillingCycle)
		appReq.BillingCycle = &cycle
	}

	updated, err := h.contracts.UpdateBillingTerms(c.Request.Context(), id, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromContract(updated))
}

// Transition handles POST /contracts/:id/transition
func (h *ContractHandler) Transition(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	updated, err := h.contracts.TransitionContract(c.Request.Context(), id, contract.Status(req.Status))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromContract(updated))
}

// Delete handles DELETE /contracts/:id
func (h *ContractHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	if err := h.contracts.DeleteContract(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
