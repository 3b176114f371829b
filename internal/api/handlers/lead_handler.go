package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akkash/bizsearch-backend/internal/api/middleware"
	"github.com/akkash/bizsearch-backend/internal/models"
	"github.com/akkash/bizsearch-backend/internal/services"
)

// LeadHandler handles lead agent REST requests.
type LeadHandler struct {
	leadService services.ILeadService
}

// NewLeadHandler creates a new LeadHandler.
func NewLeadHandler(leadService services.ILeadService) *LeadHandler {
	return &LeadHandler{leadService: leadService}
}

// ProcessInquiryRequest is the POST body for /v1/lead-agent/process.
type ProcessInquiryRequest struct {
	InquiryID string `json:"inquiry_id" binding:"required"`
}

// ProcessInquiry handles POST /v1/lead-agent/process.
func (h *LeadHandler) ProcessInquiry(c *gin.Context) {
	var req ProcessInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	result, err := h.leadService.ProcessInquiry(c.Request.Context(), req.InquiryID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Inquiry not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process inquiry"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "lead": result})
}

// SellerLeads handles GET /v1/lead-agent/seller/:id. Sellers only see their
// own queue; admins can inspect any.
func (h *LeadHandler) SellerLeads(c *gin.Context) {
	sellerID := c.Param("id")
	userID := c.GetString(middleware.ContextKeyUserID)
	isAdmin := c.GetBool(middleware.ContextKeyIsAdmin)
	if userID != sellerID && !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot view another seller's leads"})
		return
	}

	view, err := h.leadService.GetSellerLeads(c.Request.Context(), sellerID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve leads"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"leads":   view.Leads,
		"summary": view.Summary,
		"total":   view.Total,
	})
}

// UpdateLeadStatusRequest is the PATCH body for lead status updates.
type UpdateLeadStatusRequest struct {
	Status models.LeadStatus `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /v1/lead-agent/leads/:id/status.
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	var req UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	lead, err := h.leadService.UpdateLeadStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidLeadStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrLeadNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update lead"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "lead": lead})
}

// ProcessAll handles POST /v1/admin/lead-agent/process-all. Qualifies every
// inquiry that has no lead yet; the scheduler runs the same batch periodically.
func (h *LeadHandler) ProcessAll(c *gin.Context) {
	processed, err := h.leadService.ProcessAllPending(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process inquiries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "processed": processed})
}
