package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akkash/bizsearch-backend/internal/api/handlers"
	"github.com/akkash/bizsearch-backend/internal/api/middleware"
	"github.com/akkash/bizsearch-backend/internal/config"
	"github.com/akkash/bizsearch-backend/internal/models"
	"github.com/akkash/bizsearch-backend/internal/services"
)

func testConfig() *config.Config {
	return &config.Config{
		QuoteResponseETA: "24-48 hours",
		QuoteExpiry:      48 * time.Hour,
	}
}

// fakeAuth injects claims the way AuthMiddleware would after JWT validation.
func fakeAuth(userID string, isAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.ContextKeyUserID, userID)
		}
		c.Set(middleware.ContextKeyIsAdmin, isAdmin)
		c.Next()
	}
}

func setupQuoteRouter(h *handlers.QuoteHandler, userID string, isAdmin bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAuth(userID, isAdmin))
	r.POST("/v1/quote-agent/create", h.Create)
	r.GET("/v1/quote-agent/status/:id", h.Status)
	r.GET("/v1/quote-agent/list", h.List)
	r.POST("/v1/quote-agent/process", h.Process)
	return r
}

func TestQuoteCreate_Success(t *testing.T) {
	mockQuote := new(MockQuoteService)
	mockClient := new(MockAsynqClient)
	h := handlers.NewQuoteHandler(testConfig(), mockQuote, mockClient)
	r := setupQuoteRouter(h, "user-1", false)

	request := &models.QuoteRequest{
		ID:     "req-1",
		UserID: "user-1",
		Status: models.QuoteStatusCollecting,
	}
	mockQuote.On("CreateQuoteRequest", mock.Anything, "user-1", []string{"l1", "l2"}, models.ListingTypeBusiness, mock.Anything).
		Return(request, 2, nil)
	mockClient.On("EnqueueContext", mock.Anything, mock.Anything, mock.Anything).
		Return(&asynq.TaskInfo{ID: "task-1"}, nil)

	body, _ := json.Marshal(gin.H{
		"listing_ids":  []string{"l1", "l2"},
		"listing_type": "business",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/quote-agent/create", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "req-1", resp["quote_request_id"])
	assert.Equal(t, float64(2), resp["listings_contacted"])
	assert.Equal(t, "24-48 hours", resp["estimated_response_time"])
	mockQuote.AssertExpectations(t)
	mockClient.AssertExpectations(t)
}

func TestQuoteCreate_TooManyListings(t *testing.T) {
	mockQuote := new(MockQuoteService)
	mockClient := new(MockAsynqClient)
	h := handlers.NewQuoteHandler(testConfig(), mockQuote, mockClient)
	r := setupQuoteRouter(h, "user-1", false)

	mockQuote.On("CreateQuoteRequest", mock.Anything, "user-1", mock.Anything, models.ListingTypeBusiness, mock.Anything).
		Return(nil, 0, services.ErrTooManyListings)

	body, _ := json.Marshal(gin.H{
		"listing_ids":  []string{"a", "b", "c", "d", "e", "f"},
		"listing_type": "business",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/quote-agent/create", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "maximum 5 listings")
	mockClient.AssertNotCalled(t, "EnqueueContext", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuoteCreate_StoreFailurePassesMessageThrough(t *testing.T) {
	mockQuote := new(MockQuoteService)
	mockClient := new(MockAsynqClient)
	h := handlers.NewQuoteHandler(testConfig(), mockQuote, mockClient)
	r := setupQuoteRouter(h, "user-1", false)

	mockQuote.On("CreateQuoteRequest", mock.Anything, "user-1", mock.Anything, models.ListingTypeBusiness, mock.Anything).
		Return(nil, 0, errors.New("failed to insert quote request for user user-1: connection reset"))

	body, _ := json.Marshal(gin.H{"listing_ids": []string{"l1"}, "listing_type": "business"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/quote-agent/create", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "connection reset")
	mockClient.AssertNotCalled(t, "EnqueueContext", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuoteStatus_StoreFailure(t *testing.T) {
	mockQuote := new(MockQuoteService)
	mockClient := new(MockAsynqClient)
	h := handlers.NewQuoteHandler(testConfig(), mockQuote, mockClient)
	r := setupQuoteRouter(h, "user-1", false)

	mockQuote.On("GetQuoteStatus", mock.Anything, "user-1", "req-1").
		Return(nil, errors.New("error finding quote request req-1: socket closed"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/quote-agent/status/req-1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "socket closed")
}

func TestQuoteCreate_Unauthenticated(t *testing.T) {
	mockQuote := new(MockQuoteService)
	mockClient := new(MockAsynqClient)
	h := handlers.NewQuoteHandler(testConfig(), mockQuote, mockClient)
	r := setupQuoteRouter(h, "", false)

	body, _ := json.Marshal(gin.H{"listing_ids": []string{"l1"}, "listing_type": "business"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/quote-agent/create", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQuoteStatus_NotFound(t *testing.T) {
	mockQuote := new(MockQuoteService)
	mockClient := new(MockAsynqClient)
	h := handlers.NewQuoteHandler(testConfig(), mockQuote, mockClient)
	r := setupQuoteRouter(h, "user-1", false)

	mockQuote.On("GetQuoteStatus", mock.Anything, "user-1", "missing").
		Return(nil, mongo.ErrNoDocuments)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/quote-agent/status/missing", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Quote request not found")
}

func TestQuoteStatus_Success(t *testing.T) {
	mockQuote := new(MockQuoteService)
	mockClient := new(MockAsynqClient)
	h := handlers.NewQuoteHandler(testConfig(), mockQuote, mockClient)
	r := setupQuoteRouter(h, "user-1", false)

	view := &services.QuoteStatusView{
		ID:     "req-1",
		Status: models.QuoteStatusCollecting,
		Summary: services.QuoteSummary{
			Total:     3,
			Responded: 1,
			Pending:   2,
		},
	}
	mockQuote.On("GetQuoteStatus", mock.Anything, "user-1", "req-1").Return(view, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/quote-agent/status/req-1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success      bool `json:"success"`
		QuoteRequest struct {
			ID      string `json:"id"`
			Summary struct {
				Total     int `json:"total"`
				Responded int `json:"responded"`
				Pending   int `json:"pending"`
			} `json:"summary"`
		} `json:"quote_request"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "req-1", resp.QuoteRequest.ID)
	assert.Equal(t, 3, resp.QuoteRequest.Summary.Total)
	assert.Equal(t, 2, resp.QuoteRequest.Summary.Pending)
}

func TestQuoteList_Success(t *testing.T) {
	mockQuote := new(MockQuoteService)
	mockClient := new(MockAsynqClient)
	h := handlers.NewQuoteHandler(testConfig(), mockQuote, mockClient)
	r := setupQuoteRouter(h, "user-1", false)

	summaries := []services.QuoteRequestSummary{
		{ID: "req-2", Status: models.QuoteStatusCollecting},
		{ID: "req-1", Status: models.QuoteStatusCompleted},
	}
	mockQuote.On("ListQuoteRequests", mock.Anything, "user-1").Return(summaries, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/quote-agent/list", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(2), resp["total"])
}

func TestQuoteProcess_EnqueuesReports(t *testing.T) {
	mockQuote := new(MockQuoteService)
	mockClient := new(MockAsynqClient)
	h := handlers.NewQuoteHandler(testConfig(), mockQuote, mockClient)
	r := setupQuoteRouter(h, "admin-1", true)

	mockQuote.On("ProcessQuotes", mock.Anything).Return(&services.SweepResult{
		Expired:      1,
		Completed:    2,
		CompletedIDs: []string{"req-1", "req-2"},
	}, nil)
	mockClient.On("EnqueueContext", mock.Anything, mock.Anything, mock.Anything).
		Return(&asynq.TaskInfo{ID: "task-1"}, nil).Twice()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/v1/quote-agent/process", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["expired"])
	assert.Equal(t, float64(2), resp["completed"])
	mockClient.AssertExpectations(t)
}
