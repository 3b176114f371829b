package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akkash/bizsearch-backend/internal/api/middleware"
	"github.com/akkash/bizsearch-backend/internal/config"
	"github.com/akkash/bizsearch-backend/internal/models"
	"github.com/akkash/bizsearch-backend/internal/services"
	"github.com/akkash/bizsearch-backend/internal/tasks"
)

// IAsynqClient abstracts the asynq client for task enqueueing, primarily for mocking.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// QuoteHandler handles quote agent REST requests.
type QuoteHandler struct {
	cfg          *config.Config
	quoteService services.IQuoteService
	taskClient   IAsynqClient
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(cfg *config.Config, quoteService services.IQuoteService, taskClient IAsynqClient) *QuoteHandler {
	return &QuoteHandler{
		cfg:          cfg,
		quoteService: quoteService,
		taskClient:   taskClient,
	}
}

// CreateQuoteRequest is the POST body for /v1/quote-agent/create.
type CreateQuoteRequest struct {
	ListingIDs   []string                 `json:"listing_ids" binding:"required"`
	ListingType  models.ListingType       `json:"listing_type" binding:"required"`
	Requirements models.QuoteRequirements `json:"requirements"`
}

// Create handles POST /v1/quote-agent/create.
func (h *QuoteHandler) Create(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	request, contacted, err := h.quoteService.CreateQuoteRequest(
		c.Request.Context(), userID, req.ListingIDs, req.ListingType, req.Requirements)
	if err != nil {
		// Validation and store errors both come back as 400 with the
		// underlying message; only panics produce a 500 (gin Recovery).
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Outbound delivery happens in the background; a queue hiccup here is
	// recoverable since pending responses are re-dispatchable.
	if task, err := tasks.NewQuoteDispatchTask(request.ID); err != nil {
		log.Printf("QuoteHandler: failed to build dispatch task for %s: %v", request.ID, err)
	} else if _, err := h.taskClient.EnqueueContext(c.Request.Context(), task); err != nil {
		log.Printf("QuoteHandler: failed to enqueue dispatch task for %s: %v", request.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":                 true,
		"quote_request_id":        request.ID,
		"status":                  request.Status,
		"listings_contacted":      contacted,
		"estimated_response_time": h.cfg.QuoteResponseETA,
		"expires_at":              request.ExpiresAt,
	})
}

// Status handles GET /v1/quote-agent/status/:id. Requests owned by other
// users 404 the same way as missing ones.
func (h *QuoteHandler) Status(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	view, err := h.quoteService.GetQuoteStatus(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Quote request not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "quote_request": view})
}

// List handles GET /v1/quote-agent/list.
func (h *QuoteHandler) List(c *gin.Context) {
	userID := c.GetString(middleware.ContextKeyUserID)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	summaries, err := h.quoteService.ListQuoteRequests(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"quote_requests": summaries,
		"total":          len(summaries),
	})
}

// Process handles POST /v1/quote-agent/process, the admin-triggered
// maintenance sweep. The scheduled sweep runs the same service call.
func (h *QuoteHandler) Process(c *gin.Context) {
	result, err := h.quoteService.ProcessQuotes(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, requestID := range result.CompletedIDs {
		if task, err := tasks.NewQuoteReportTask(requestID); err != nil {
			log.Printf("QuoteHandler: failed to build report task for %s: %v", requestID, err)
		} else if _, err := h.taskClient.EnqueueContext(c.Request.Context(), task); err != nil {
			log.Printf("QuoteHandler: failed to enqueue report task for %s: %v", requestID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"expired":   result.Expired,
		"completed": result.Completed,
	})
}
