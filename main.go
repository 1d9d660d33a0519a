package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/marinelli-collision/bodyshop-api/config"
	"github.com/marinelli-collision/bodyshop-api/controllers"
	"github.com/marinelli-collision/bodyshop-api/middleware"
	"github.com/marinelli-collision/bodyshop-api/models"
	"github.com/marinelli-collision/bodyshop-api/services"
)

func main() {
	log.Println("Starting Body Shop API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.Shop{},
		&models.User{},
		&models.Customer{},
		&models.Vehicle{},
		&models.RepairOrder{},
		&models.JobStatusLog{},
		&models.EstimateApprovalLink{},
		&models.RoPayment{},
		&models.Communication{},
		&models.RoPhoto{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Background services
	services.InitNotificationDispatcher(&services.LogNotifier{})
	services.InitPaymentProcessor(cfg)
	if _, err := services.InitS3Service(); err != nil {
		log.Printf("Photo storage not configured: %v", err)
	}
	stopCarryover := services.StartCarryoverJob(24 * time.Hour)
	defer close(stopCarryover)

	router := setupRouter()

	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter builds the gin engine with all routes and middleware
func setupRouter() *gin.Engine {
	cfg := config.GetConfig()
	if cfg == nil {
		cfg = &config.Config{}
	}

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Public routes: customer approval links and payment processor webhooks
	// are reached without a staff JWT.
	public := router.Group("/public")
	{
		public.GET("/approvals/:token", controllers.ResolveApprovalLink)
		public.POST("/approvals/:token/respond", controllers.RespondToApprovalLink)
	}
	router.POST("/webhooks/stripe", controllers.StripeWebhook)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", databaseStatus)

		protected := v1.Group("")
		protected.Use(middleware.EnsureValidToken(cfg))
		{
			protected.POST("/users", controllers.CreateUser)
			protected.GET("/users/me", controllers.GetMyProfile)

			protected.POST("/repair-orders", controllers.CreateRepairOrder)
			protected.GET("/repair-orders/:id", controllers.GetRepairOrder)
			protected.DELETE("/repair-orders/:id", middleware.RequireScope("delete:repair-orders"), controllers.DeleteRepairOrder)
			protected.POST("/repair-orders/:id/transition", controllers.TransitionRepairOrder)
			protected.PATCH("/repair-orders/:id/financials", controllers.UpdateRepairOrderFinancials)
			protected.POST("/repair-orders/:id/approval-link", controllers.IssueApprovalLink)
			protected.POST("/repair-orders/:id/payment-intent", controllers.CreatePaymentIntent)
			protected.GET("/repair-orders/:id/payment-status", controllers.RepairOrderPayments)
			protected.POST("/repair-orders/:id/photos", controllers.UploadPhoto)
			protected.GET("/repair-orders/:id/photos", controllers.ListPhotos)

			protected.GET("/payments", controllers.PaymentHistory)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Body Shop API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
