package handler

import (
	"time"

	pricingapp "github.com/econtract/backend/internal/application/pricing"
	"github.com/econtract/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PricingHandler exposes the price rule endpoints
type PricingHandler struct {
	BaseHandler
	pricing *pricingapp.PricingService
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(pricing *pricingapp.PricingService) *PricingHandler {
	return &PricingHandler{pricing: pricing}
}

// RegisterRoutes registers the pricing routes on the given group
func (h *PricingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	prices := rg.Group("/prices")
	prices.POST("", h.Create)
	prices.GET("/:id", h.Get)
	prices.PUT("/:id", h.Update)
	prices.DELETE("/:id", h.Delete)
	prices.POST("/:id/tiers", h.AddTier)
	prices.DELETE("/:id/tiers/:tierID", h.RemoveTier)
	prices.POST("/:id/deactivate", h.Deactivate)

	contracts := rg.Group("/contracts/:id")
	contracts.GET("/prices", h.ListByContract)
	contracts.GET("/prices/resolve", h.Resolve)
}

// TierBody is one quantity tier in a price rule request
type TierBody struct {
	MinQuantity decimal.Decimal  `json:"min_quantity"`
	MaxQuantity *decimal.Decimal `json:"max_quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
}

// CreatePriceRequest is the request body for creating a price rule
type CreatePriceRequest struct {
	ContractID   string          `json:"contract_id" binding:"required,uuid"`
	Category     string          `json:"category" binding:"required,max=100"`
	Description  string          `json:"description" binding:"max=500"`
	UnitPriceNet decimal.Decimal `json:"unit_price_net"`
	Unit         string          `json:"unit" binding:"max=50"`
	ValidFrom    time.Time       `json:"valid_from" binding:"required"`
	ValidTo      *time.Time      `json:"valid_to"`
	Tiers        []TierBody      `json:"tiers"`
}

// Create handles POST /prices
func (h *PricingHandler) Create(c *gin.Context) {
	var req CreatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	contractID, err := parseUUID(req.ContractID)
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}

	tiers := make([]pricingapp.TierRequest, len(req.Tiers))
	for i, t := range req.Tiers {
		tiers[i] = pricingapp.TierRequest{
			MinQuantity: t.MinQuantity,
			MaxQuantity: t.MaxQuantity,
			UnitPrice:   t.UnitPrice,
		}
	}

	price, err := h.pricing.CreatePrice(c.Request.Context(), pricingapp.CreatePriceRequest{
		ContractID:   contractID,
		Category:     req.Category,
		Description:  req.Description,
		UnitPriceNet: req.UnitPriceNet,
		Unit:         req.Unit,
		ValidFrom:    req.ValidFrom,
		ValidTo:      req.ValidTo,
	}, tiers)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromPrice(price))
}

// Get handles GET /prices/:id
func (h *PricingHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid price ID")
		return
	}
	price, err := h.pricing.GetPrice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromPrice(price))
}

// UpdatePriceRequest is the request body for updating a price rule
type UpdatePriceRequest struct {
	Description  string          `json:"description" binding:"max=500"`
	UnitPriceNet decimal.Decimal `json:"unit_price_net"`
	Unit         string          `json:"unit" binding:"max=50"`
	ValidFrom    time.Time       `json:"valid_from" binding:"required"`
	ValidTo      *time.Time      `json:"valid_to"`
}

// Update handles PUT /prices/:id
func (h *PricingHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid price ID")
		return
	}
	var req UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	price, err := h.pricing.UpdatePrice(c.Request.Context(), id, pricingapp.UpdatePriceRequest{
		Description:  req.Description,
		UnitPriceNet: req.UnitPriceNet,
		Unit:         req.Unit,
		ValidFrom:    req.ValidFrom,
		ValidTo:      req.ValidTo,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromPrice(price))
}

// Delete handles DELETE /prices/:id
func (h *PricingHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid price ID")
		return
	}
	if err := h.pricing.DeletePrice(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListByContract handles GET /contracts/:id/prices
func (h *PricingHandler) ListByContract(c *gin.Context) {
	contractID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	prices, err := h.pricing.ListPricesByContract(c.Request.Context(), contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromPrices(prices))
}

// AddTier handles POST /prices/:id/tiers
func (h *PricingHandler) AddTier(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid price ID")
		return
	}
	var req TierBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	price, err := h.pricing.AddTier(c.Request.Context(), id, pricingapp.TierRequest{
		MinQuantity: req.MinQuantity,
		MaxQuantity: req.MaxQuantity,
		UnitPrice:   req.UnitPrice,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromPrice(price))
}

// RemoveTier handles DELETE /prices/:id/tiers/:tierID
func (h *PricingHandler) RemoveTier(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid price ID")
		return
	}
	tierID, err := parseIDParam(c, "tierID")
	if err != nil {
		h.BadRequest(c, "Invalid tier ID")
		return
	}

	price, err := h.pricing.RemoveTier(c.Request.Context(), id, tierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromPrice(price))
}

// Deactivate handles POST /prices/:id/deactivate
func (h *PricingHandler) Deactivate(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid price ID")
		return
	}
	if err := h.pricing.DeactivatePrice(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ResolveQuery holds the query parameters of a price resolution request
type ResolveQuery struct {
	Category    string `form:"category" binding:"required"`
	Quantity    string `form:"quantity" binding:"omitempty,decimal"`
	ServiceDate string `form:"service_date" binding:"omitempty,datetime=2006-01-02"`
}

// Resolve handles GET /contracts/:id/prices/resolve
func (h *PricingHandler) Resolve(c *gin.Context) {
	contractID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	var query ResolveQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	serviceDate := time.Now().UTC().Truncate(24 * time.Hour)
	if query.ServiceDate != "" {
		serviceDate, _ = time.Parse("2006-01-02", query.ServiceDate)
	}

	var quantity *decimal.Decimal
	if query.Quantity != "" {
		q, err := decimal.NewFromString(query.Quantity)
		if err != nil {
			h.BadRequest(c, "Invalid quantity")
			return
		}
		quantity = &q
	}

	resolved, err := h.pricing.ResolveUnitPrice(c.Request.Context(), contractID, query.Category, quantity, serviceDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromResolvedPrice(resolved))
}
