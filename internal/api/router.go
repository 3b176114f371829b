package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/akkash/bizsearch-backend/internal/api/handlers"
	"github.com/akkash/bizsearch-backend/internal/api/middleware"
	"github.com/akkash/bizsearch-backend/internal/config"
	"github.com/akkash/bizsearch-backend/internal/email"
	"github.com/akkash/bizsearch-backend/internal/events"
	"github.com/akkash/bizsearch-backend/internal/services"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, taskClient handlers.IAsynqClient, emailSender email.Sender, publisher events.Publisher) *gin.Engine {
	// Initialize services needed by API handlers here.
	listingService := services.NewListingService(db, cfg)
	profileService := services.NewProfileService(db)
	quoteService := services.NewQuoteService(db, cfg, listingService, publisher)
	leadService := services.NewLeadService(db, cfg, listingService, emailSender, publisher)

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Global middleware first, order matters.
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	quoteHandler := handlers.NewQuoteHandler(cfg, quoteService, taskClient)
	leadHandler := handlers.NewLeadHandler(leadService)
	restListingHandler := handlers.NewRestListingHandler(listingService)
	profileHandler := handlers.NewProfileHandler(profileService)

	v1 := r.Group("/v1")
	{
		// Public catalogue routes
		v1.GET("/businesses", restListingHandler.ListBusinesses)
		v1.GET("/businesses/:id", restListingHandler.GetBusiness)
		v1.GET("/franchises", restListingHandler.ListFranchises)
		v1.GET("/franchises/:id", restListingHandler.GetFranchise)
		v1.GET("/search", restListingHandler.Search)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Authenticated routes
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.POST("/quote-agent/create", quoteHandler.Create)
			authRequired.GET("/quote-agent/status/:id", quoteHandler.Status)
			authRequired.GET("/quote-agent/list", quoteHandler.List)

			authRequired.POST("/lead-agent/process", leadHandler.ProcessInquiry)
			authRequired.GET("/lead-agent/seller/:id", leadHandler.SellerLeads)
			authRequired.PATCH("/lead-agent/leads/:id/status", leadHandler.UpdateStatus)

			authRequired.GET("/profiles/:id/completeness", profileHandler.Completeness)
		}

		// Admin routes
		adminRequired := v1.Group("/admin")
		adminRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.AdminMiddleware())
		{
			adminRequired.POST("/quote-agent/process", quoteHandler.Process)
			adminRequired.POST("/lead-agent/process-all", leadHandler.ProcessAll)
		}
	}

	return r
}

// SetupServiceRouter configures and returns the internal service Gin engine
// used by deployment tooling and end-to-end tests. Requires Redis for the
// getTestEmail endpoint backed by the capture email sender.
func SetupServiceRouter(cfg *config.Config, rdb *redis.Client, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			log.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				log.Println("Shutdown channel already signaled or blocked.")
			}
		case "getTestEmail":
			var args []string // Expect ["kind", "email"]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 2 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [kind, email]"})
				return
			}
			redisKey := fmt.Sprintf("mockemail:%s:%s", args[1], args[0])

			var emailJSONData string
			found := false
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			for i := 0; i < 10; i++ {
				data, err := rdb.Get(ctx, redisKey).Result()
				if err == nil {
					emailJSONData = data
					found = true
					rdb.Del(ctx, redisKey)
					break
				}
				if err != redis.Nil {
					log.Printf("Service API: Error getting key %s from Redis: %v", redisKey, err)
					c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
					return
				}
				time.Sleep(200 * time.Millisecond)
			}

			if !found {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test email not found in Redis for key %s", redisKey)})
				return
			}

			var emailData map[string]interface{}
			if err := json.Unmarshal([]byte(emailJSONData), &emailData); err != nil {
				log.Printf("Service API: Error unmarshalling email data from key %s: %v", redisKey, err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored email data"})
				return
			}

			c.JSON(http.StatusOK, gin.H{"success": true, "data": emailData})

		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
