package handler

import (
	billingapp "github.com/econtract/backend/internal/application/billing"
	"github.com/econtract/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ScheduleHandler exposes the recurring billing schedule endpoints
type ScheduleHandler struct {
	BaseHandler
	schedules *billingapp.ScheduleService
}

// NewScheduleHandler creates a new ScheduleHandler
func NewScheduleHandler(schedules *billingapp.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// RegisterRoutes registers the schedule routes on the given group
func (h *ScheduleHandler) RegisterRoutes(rg *gin.RouterGroup) {
	schedule := rg.Group("/contracts/:id/schedule")
	schedule.POST("", h.Generate)
	schedule.PUT("", h.Regenerate)
	schedule.GET("", h.List)
}

// Generate handles POST /contracts/:id/schedule
func (h *ScheduleHandler) Generate(c *gin.Context) {
	contractID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	invoices, err := h.schedules.GenerateSchedule(c.Request.Context(), contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromInvoices(invoices))
}

// Regenerate handles PUT /contracts/:id/schedule. Existing scheduled
// invoices are dropped and rebuilt from the current billing terms.
func (h *ScheduleHandler) Regenerate(c *gin.Context) {
	contractID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	invoices, err := h.schedules.RegenerateSchedule(c.Request.Context(), contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromInvoices(invoices))
}

// List handles GET /contracts/:id/schedule
func (h *ScheduleHandler) List(c *gin.Context) {
	contractID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid contract ID")
		return
	}
	invoices, err := h.schedules.ListScheduledInvoices(c.Request.Context(), contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.FromInvoices(invoices))
}
