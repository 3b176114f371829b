package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akkash/bizsearch-backend/internal/services"
)

// Sort fields callers may request on the public catalogue. Anything else
// falls back to created_at.
var allowedSortFields = map[string]bool{
	"created_at":              true,
	"price":                   true,
	"revenue":                 true,
	"name":                    true,
	"brand_name":              true,
	"total_investment_min":    true,
	"franchise_fee":           true,
	"data_completeness_score": true,
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	minSearchLength  = 2
)

// RestListingHandler handles public catalogue REST requests.
type RestListingHandler struct {
	listingService services.IListingService
}

// NewRestListingHandler creates a new RestListingHandler.
func NewRestListingHandler(listingService services.IListingService) *RestListingHandler {
	return &RestListingHandler{listingService: listingService}
}

// sanitizeParam strips characters that could alter a regex or query filter.
func sanitizeParam(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', '{', '}', '(', ')', '[', ']', '\\', '^', '|', '*', '+', '?', '.':
			return -1
		}
		return r
	}, raw)
	return strings.TrimSpace(cleaned)
}

func parsePagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func parseFloatQuery(c *gin.Context, key string) float64 {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val < 0 {
		return 0
	}
	return val
}

func buildListingQuery(c *gin.Context) services.ListingQuery {
	page, limit := parsePagination(c)

	sortBy := sanitizeParam(c.Query("sort_by"))
	if !allowedSortFields[sortBy] {
		sortBy = "created_at"
	}
	sortOrder := c.DefaultQuery("sort_order", "desc")
	if sortOrder != "asc" {
		sortOrder = "desc"
	}

	return services.ListingQuery{
		Page:               page,
		Limit:              limit,
		Industry:           sanitizeParam(c.Query("industry")),
		City:               sanitizeParam(c.Query("city")),
		State:              sanitizeParam(c.Query("state")),
		Location:           sanitizeParam(c.Query("location")),
		Search:             sanitizeParam(c.Query("search")),
		VerificationStatus: sanitizeParam(c.Query("verification_status")),
		MinPrice:           parseFloatQuery(c, "min_price"),
		MaxPrice:           parseFloatQuery(c, "max_price"),
		MinInvestment:      parseFloatQuery(c, "min_investment"),
		MaxInvestment:      parseFloatQuery(c, "max_investment"),
		SortBy:             sortBy,
		SortOrder:          sortOrder,
	}
}

func paginationEnvelope(page, limit int, total int64) gin.H {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return gin.H{
		"page":        page,
		"limit":       limit,
		"total":       total,
		"total_pages": totalPages,
		"has_next":    page < totalPages,
		"has_prev":    page > 1,
	}
}

func metaEnvelope(start time.Time) gin.H {
	return gin.H{
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"response_time_ms": time.Since(start).Milliseconds(),
	}
}

// ListBusinesses handles GET /v1/businesses.
func (h *RestListingHandler) ListBusinesses(c *gin.Context) {
	start := time.Now()
	q := buildListingQuery(c)

	businesses, total, err := h.listingService.ListBusinesses(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list businesses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       businesses,
		"pagination": paginationEnvelope(q.Page, q.Limit, total),
		"meta":       metaEnvelope(start),
	})
}

// GetBusiness handles GET /v1/businesses/:id, accepting a UUID or a slug.
func (h *RestListingHandler) GetBusiness(c *gin.Context) {
	start := time.Now()

	business, err := h.listingService.GetBusiness(c.Request.Context(), sanitizeParam(c.Param("id")))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Business not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve business"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": business, "meta": metaEnvelope(start)})
}

// ListFranchises handles GET /v1/franchises.
func (h *RestListingHandler) ListFranchises(c *gin.Context) {
	start := time.Now()
	q := buildListingQuery(c)

	franchises, total, err := h.listingService.ListFranchises(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list franchises"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       franchises,
		"pagination": paginationEnvelope(q.Page, q.Limit, total),
		"meta":       metaEnvelope(start),
	})
}

// GetFranchise handles GET /v1/franchises/:id, accepting a UUID or a slug.
func (h *RestListingHandler) GetFranchise(c *gin.Context) {
	start := time.Now()

	franchise, err := h.listingService.GetFranchise(c.Request.Context(), sanitizeParam(c.Param("id")))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Franchise not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve franchise"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": franchise, "meta": metaEnvelope(start)})
}

// Search handles GET /v1/search across both listing types.
func (h *RestListingHandler) Search(c *gin.Context) {
	start := time.Now()

	term := sanitizeParam(c.Query("q"))
	if len(term) < minSearchLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search term must be at least 2 characters"})
		return
	}

	_, limit := parsePagination(c)
	result, err := h.listingService.SearchAll(c.Request.Context(), term, limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": result,
		"meta": metaEnvelope(start),
	})
}
