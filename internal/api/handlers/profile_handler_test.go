package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akkash/bizsearch-backend/internal/api/handlers"
	"github.com/akkash/bizsearch-backend/internal/models"
	"github.com/akkash/bizsearch-backend/internal/services"
)

func setupProfileRouter(h *handlers.ProfileHandler, userID string, isAdmin bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAuth(userID, isAdmin))
	r.GET("/v1/profiles/:id/completeness", h.Completeness)
	return r
}

func TestProfileCompleteness_Success(t *testing.T) {
	mockProfile := new(MockProfileService)
	h := handlers.NewProfileHandler(mockProfile)
	r := setupProfileRouter(h, "user-1", false)

	profile := &models.Profile{ID: "user-1", DisplayName: "Asha", Role: models.RoleBuyer}
	mockProfile.On("GetProfile", mock.Anything, "user-1").Return(profile, nil)
	mockProfile.On("Completeness", profile).Return(services.CompletenessResult{
		Score: 72,
		Tier:  services.TierComplete,
		MissingFields: []services.MissingField{
			{Field: "phone", Label: "Phone Number", Priority: services.PriorityHigh},
		},
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/profiles/user-1/completeness", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success      bool                         `json:"success"`
		Completeness services.CompletenessResult `json:"completeness"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 72, resp.Completeness.Score)
	assert.Equal(t, services.TierComplete, resp.Completeness.Tier)
}

func TestProfileCompleteness_OtherUserForbidden(t *testing.T) {
	mockProfile := new(MockProfileService)
	h := handlers.NewProfileHandler(mockProfile)
	r := setupProfileRouter(h, "user-1", false)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/profiles/user-2/completeness", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockProfile.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
}

func TestProfileCompleteness_NotFound(t *testing.T) {
	mockProfile := new(MockProfileService)
	h := handlers.NewProfileHandler(mockProfile)
	r := setupProfileRouter(h, "admin-1", true)

	mockProfile.On("GetProfile", mock.Anything, "ghost").Return(nil, mongo.ErrNoDocuments)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/v1/profiles/ghost/completeness", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
