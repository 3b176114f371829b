package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akkash/bizsearch-backend/internal/api/middleware"
	"github.com/akkash/bizsearch-backend/internal/services"
)

// ProfileHandler handles profile REST requests.
type ProfileHandler struct {
	profileService services.IProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService services.IProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// Completeness handles GET /v1/profiles/:id/completeness. Users score their
// own profile; admins can score any.
func (h *ProfileHandler) Completeness(c *gin.Context) {
	profileID := c.Param("id")
	userID := c.GetString(middleware.ContextKeyUserID)
	isAdmin := c.GetBool(middleware.ContextKeyIsAdmin)
	if userID != profileID && !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot view another user's completeness"})
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), profileID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve profile"})
		}
		return
	}

	result := h.profileService.Completeness(profile)
	c.JSON(http.StatusOK, gin.H{"success": true, "completeness": result})
}
