package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/flowgate/backend/internal/application/services"
	"github.com/flowgate/backend/internal/bootstrap"
	"github.com/flowgate/backend/internal/infrastructure/database"
	"github.com/flowgate/backend/internal/interfaces/middleware"
	"github.com/flowgate/backend/internal/interfaces/rest"
)

func main() {
	// Load .env if present; real deployments set env vars directly
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	// Initialize database connection
	db, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connection established")

	// Create tables on a fresh database
	if err := bootstrap.InitializeSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Initialize service manager
	svcMgr := services.NewServiceManager(db)
	log.Println("🔧 Service manager initialized")

	// Seed default roles and admin account on first boot
	if err := bootstrap.InitializeSystemData(svcMgr); err != nil {
		log.Fatalf("Failed to initialize system data: %v", err)
	}

	// Create Gin router
	router := gin.Default()

	// CORS middleware - Allow credentials from any origin
	router.Use(middleware.Cors())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})

	// Initialize handlers
	authHandler := rest.NewAuthHandler(svcMgr.Auth)
	workflowHandler := rest.NewWorkflowHandler(svcMgr.Templates, svcMgr.Instances)

	// Initialize middleware
	requireAuth := middleware.RequireAuth(svcMgr.Auth)
	requireAdmin := middleware.RequireAdmin()

	// API routes
	api := router.Group("/api")
	{
		// Public Auth routes
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/login", authHandler.Login)
		}

		// Protected Workflow routes
		workflows := api.Group("/workflows")
		workflows.Use(requireAuth)
		{
			// Template management is admin-only
			templates := workflows.Group("/templates")
			templates.Use(requireAdmin)
			{
				templates.POST("", workflowHandler.CreateTemplate)
				templates.GET("", workflowHandler.ListTemplates)
				templates.GET("/:templateId", workflowHandler.GetTemplate)
				templates.POST("/:templateId/deactivate", workflowHandler.DeactivateTemplate)
			}

			workflows.POST("/start", workflowHandler.StartWorkflow)
			workflows.GET("/assigned", workflowHandler.GetAssigned)

			instances := workflows.Group("/instances")
			{
				instances.GET("/:instanceId", workflowHandler.GetInstance)
				instances.POST("/:instanceId/actions", workflowHandler.TakeAction)
				instances.GET("/:instanceId/actions", workflowHandler.ListActions)
				instances.GET("/:instanceId/assignments", workflowHandler.ListAssignments)
			}
		}
	}

	// Start server
	log.Println("\n═══════════════════════════════════════════════════════════════════════════")
	log.Println("🚀 FlowGate Workflow Backend Started Successfully")
	log.Println("═══════════════════════════════════════════════════════════════════════════")
	log.Printf("\n📍 Server:         http://localhost:%s", port)
	log.Printf("🔐 Auth API:       http://localhost:%s/api/auth", port)
	log.Printf("🗂  Workflow API:   http://localhost:%s/api/workflows", port)
	log.Printf("💚 Health check:   http://localhost:%s/health\n", port)

	// Create HTTP Server
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// The context gives in-flight requests 5 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
