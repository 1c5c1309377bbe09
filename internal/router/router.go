package router

import (
	"database/sql"
	"net/http"

	"restaurant_pos_backend/internal/config"
	"restaurant_pos_backend/internal/events"
	"restaurant_pos_backend/internal/handlers"
	"restaurant_pos_backend/internal/middleware"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Messenger is what the services publish order events and reset codes through.
type Messenger interface {
	events.Publisher
	events.Notifier
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB, cfg *config.Config, messenger Messenger) {
	// Initialize Repositories
	tx := repositories.NewTransactor(db)
	authRepo := repositories.NewAuthRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	menuRepo := repositories.NewMenuRepository(db)
	movementRepo := repositories.NewStockMovementRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	tableRepo := repositories.NewTableRepository(db)
	analyticsRepo := repositories.NewAnalyticsRepository(db)

	// Initialize Services
	jwtManager := utils.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	authService := services.NewAuthService(authRepo, sessionRepo, jwtManager)
	sessionService := services.NewSessionService(sessionRepo)
	resetService := services.NewPasswordResetService(authRepo, sessionRepo, tx, messenger, cfg.OTPTTL)
	menuService := services.NewMenuService(menuRepo, movementRepo, tx)
	orderService := services.NewOrderService(orderRepo, menuRepo, movementRepo, authRepo, tx, messenger)
	draftService := services.NewDraftService(orderService, menuRepo)
	tableService := services.NewTableService(tableRepo, tx)
	analyticsService := services.NewAnalyticsService(analyticsRepo)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService, sessionService, resetService)
	menuHandler := handlers.NewMenuHandler(menuService)
	orderHandler := handlers.NewOrderHandler(orderService)
	draftHandler := handlers.NewDraftHandler(draftService)
	tableHandler := handlers.NewTableHandler(tableService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

	apiV1 := engine.Group("/api/v1")
	apiV1.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(jwtManager, sessionService))
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupAdminSessionRoutes(authenticated, authHandler)
		SetupMenuRoutes(authenticated, menuHandler)
		SetupTableRoutes(authenticated, tableHandler, draftHandler)
		SetupOrderRoutes(authenticated, orderHandler)
		SetupAnalyticsRoutes(authenticated, analyticsHandler)
	}
}

func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.LoginUser)
	group.POST("/send-otp", authHandler.SendOTP)
	group.POST("/reset-password", authHandler.ResetPassword)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/logout", authHandler.LogoutUser)
	group.GET("/me", authHandler.GetCurrentUser)
	group.POST("/register", middleware.RoleAuthMiddleware(adminOnly...), authHandler.RegisterUser)
}
