package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/uniworld-consultancy/case-service/internal/config"
	"github.com/uniworld-consultancy/case-service/internal/models"
	"github.com/uniworld-consultancy/case-service/internal/repositories"
	"github.com/uniworld-consultancy/case-service/internal/services"
	"github.com/uniworld-consultancy/case-service/internal/utils"
	"github.com/uniworld-consultancy/case-service/internal/validator"
)

type HandlerManager struct {
	applicationHandler *ApplicationHandler
	documentHandler    *DocumentHandler
	messageHandler     *MessageHandler
	destinationHandler *DestinationHandler
	userHandler        *UserHandler
	authMiddleware     *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		applicationHandler: NewApplicationHandler(serviceManager.Application(), validator, logger),
		documentHandler:    NewDocumentHandler(serviceManager.Document(), validator, logger),
		messageHandler:     NewMessageHandler(serviceManager.Message(), validator, logger),
		destinationHandler: NewDestinationHandler(serviceManager.Destination(), validator, logger),
		userHandler:        NewUserHandler(userRepo, logger),
		authMiddleware:     authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Public catalog routes. Optional auth so staff see unpublished entries.
	public := router.Group("/api/v1")
	public.Use(hm.authMiddleware.OptionalAuthMiddleware())
	{
		public.GET("/destinations", hm.destinationHandler.ListDestinations)
		public.GET("/destinations/slug/:slug", hm.destinationHandler.GetDestinationBySlug)
		public.GET("/destinations/:id", hm.destinationHandler.GetDestination)
	}

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Application routes
		applications := v1.Group("/applications")
		{
			applications.POST("", hm.applicationHandler.CreateApplication)
			applications.GET("", hm.applicationHandler.ListApplications)
			applications.GET("/ref/:ref", hm.applicationHandler.GetApplicationByRef)
			applications.GET("/:id", hm.applicationHandler.GetApplication)
			applications.PUT("/:id", hm.applicationHandler.UpdateApplication)
			applications.GET("/:id/history", hm.applicationHandler.GetStatusHistory)
			applications.GET("/:id/documents", hm.documentHandler.ListDocuments)

			// Staff-only workflow operations
			applications.PUT("/:id/status", hm.authMiddleware.RequireRoleMiddleware(models.RoleStaff, models.RoleAdmin), hm.applicationHandler.UpdateApplicationStatus)
			applications.GET("/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleStaff, models.RoleAdmin), hm.applicationHandler.GetApplicationStats)
			applications.GET("/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleStaff, models.RoleAdmin), hm.applicationHandler.ExportApplications)

			// Deletion - Admins only
			applications.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.applicationHandler.DeleteApplication)
		}

		// Document routes
		documents := v1.Group("/documents")
		{
			documents.POST("", hm.documentHandler.UploadDocument)
			documents.GET("/:id", hm.documentHandler.GetDocument)
			documents.GET("/:id/download", hm.documentHandler.DownloadDocument)
			documents.DELETE("/:id", hm.documentHandler.DeleteDocument)

			// Verification - Staff and Admins only
			documents.POST("/:id/verify", hm.authMiddleware.RequireRoleMiddleware(models.RoleStaff, models.RoleAdmin), hm.documentHandler.VerifyDocument)
		}

		// Message routes
		messages := v1.Group("/messages")
		{
			messages.POST("", hm.messageHandler.SendMessage)
			messages.GET("/inbox", hm.messageHandler.GetInbox)
			messages.GET("/sent", hm.messageHandler.GetSent)
			messages.GET("/unread-count", hm.messageHandler.GetUnreadCount)
			messages.GET("/:id", hm.messageHandler.GetMessage)
			messages.POST("/:id/read", hm.messageHandler.MarkMessageRead)
		}

		// Destination management - Staff and Admins only
		destinations := v1.Group("/destinations")
		destinations.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleStaff, models.RoleAdmin))
		{
			destinations.POST("", hm.destinationHandler.CreateDestination)
			destinations.PUT("/:id", hm.destinationHandler.UpdateDestination)
			destinations.DELETE("/:id", hm.destinationHandler.DeleteDestination)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("/me", hm.userHandler.GetCurrentUser)
			users.GET("/staff", hm.userHandler.ListStaff)
			users.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleStaff, models.RoleAdmin), hm.userHandler.ListUsers)
			users.GET("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleStaff, models.RoleAdmin), hm.userHandler.GetUser)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "case-service",
		})
	})
}
