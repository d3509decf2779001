package main

import (
	"fmt"
	"net/http"
	"os"

	"gestops/internal/config"
	"gestops/internal/database"
	"gestops/internal/handlers"
	"gestops/internal/logger"
	"gestops/internal/middleware"
	"gestops/internal/models"
	"gestops/internal/services"
	"gestops/internal/storage"
	"gestops/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "gestops/internal/docs" // Import swagger docs
)

// @title           GestOps API
// @version         1.0
// @description     GestOps is an accounting backend for recording financial operations against counterparties, classifying them in a three-level taxonomy, and exporting filtered sets to Excel.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom binding validators
	validator.Register()

	// Attachment file store
	store, err := storage.NewLocal(appConfig.UploadDir, appConfig.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("failed to initialize upload storage: %w", err)
	}

	// Outbound mail
	var mailer services.Mailer
	if appConfig.SMTPHost != "" {
		mailer = services.NewSMTPMailer(appConfig)
	} else {
		mailer = services.NewLogMailer()
	}

	// Initialize services
	db := dbManager.DB()
	auditService := services.NewAuditService(db)
	userService := services.NewUserService(db, mailer)
	personService := services.NewPersonService(db)
	conceptService := services.NewConceptService(db)
	categoryService := services.NewCategoryService(db)
	subcategoryService := services.NewSubcategoryService(db)
	operationService := services.NewOperationService(db, store)
	exportService := services.NewExportService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	personHandler := handlers.NewPersonHandler(personService)
	taxonomyHandler := handlers.NewTaxonomyHandler(conceptService, categoryService, subcategoryService)
	operationHandler := handlers.NewOperationHandler(operationService, exportService, auditService)
	attachmentHandler := handlers.NewAttachmentHandler(operationService, auditService, appConfig.MaxUploadSize)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(appConfig.CORSAllowedOrigins))
	router.MaxMultipartMemory = appConfig.MaxUploadSize

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// Account routes
	protected.GET("/auth/me", authHandler.Me)
	protected.PUT("/auth/password", authHandler.ChangePassword)
	protected.POST("/auth/register",
		middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor), authHandler.Register)

	// User administration
	users := protected.Group("/users")
	users.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor))
	users.GET("", userHandler.ListUsers)
	users.GET("/:id", userHandler.GetUser)
	users.PATCH("/:id", userHandler.UpdateUser)
	users.DELETE("/:id", userHandler.DeleteUser)

	// Counterparty routes
	persons := protected.Group("/persons")
	persons.GET("", personHandler.ListPersons)
	persons.GET("/:id", personHandler.GetPerson)
	persons.POST("", personHandler.CreatePerson)
	persons.PATCH("/:id", personHandler.UpdatePerson)
	persons.DELETE("/:id", personHandler.DeletePerson)

	// Taxonomy routes
	concepts := protected.Group("/concepts")
	concepts.GET("", taxonomyHandler.ListConcepts)
	concepts.GET("/:id", taxonomyHandler.GetConcept)
	concepts.POST("", taxonomyHandler.CreateConcept)
	concepts.PATCH("/:id", taxonomyHandler.UpdateConcept)
	concepts.DELETE("/:id", taxonomyHandler.DeleteConcept)

	categories := protected.Group("/categories")
	categories.GET("", taxonomyHandler.ListCategories)
	categories.GET("/:id", taxonomyHandler.GetCategory)
	categories.POST("", taxonomyHandler.CreateCategory)
	categories.PATCH("/:id", taxonomyHandler.UpdateCategory)
	categories.DELETE("/:id", taxonomyHandler.DeleteCategory)

	subcategories := protected.Group("/subcategories")
	subcategories.GET("", taxonomyHandler.ListSubcategories)
	subcategories.GET("/:id", taxonomyHandler.GetSubcategory)
	subcategories.POST("", taxonomyHandler.CreateSubcategory)
	subcategories.PATCH("/:id", taxonomyHandler.UpdateSubcategory)
	subcategories.DELETE("/:id", taxonomyHandler.DeleteSubcategory)

	// Operation routes. Reading and mutating require admin or supervisor;
	// creation is admin only.
	operations := protected.Group("/operations")
	operations.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor))
	operations.GET("", operationHandler.ListOperations)
	operations.GET("/totals", operationHandler.GetTotals)
	operations.GET("/export", operationHandler.ExportOperations)
	operations.POST("", middleware.RequireRoles(models.RoleAdmin), operationHandler.CreateOperation)
	operations.PATCH("/bulk", operationHandler.BulkUpdateOperations)
	operations.GET("/:id", operationHandler.GetOperation)
	operations.PATCH("/:id", operationHandler.UpdateOperation)
	operations.DELETE("/:id", operationHandler.DeleteOperation)

	// Attachment slots
	operations.GET("/:id/attachments/:slot", attachmentHandler.DownloadAttachment)
	operations.PUT("/:id/attachments/:slot", attachmentHandler.UploadAttachment)
	operations.DELETE("/:id/attachments/:slot", attachmentHandler.DeleteAttachment)

	log.Infof("Starting GestOps backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
