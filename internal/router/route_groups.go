package router

import (
	"restaurant_pos_backend/internal/handlers"
	"restaurant_pos_backend/internal/middleware"
	"restaurant_pos_backend/internal/models"

	"github.com/gin-gonic/gin"
)

var (
	adminOnly = []string{models.RoleAdmin}
	allStaff  = []string{models.RoleAdmin, models.RoleWaiter}
)

// SetupAdminSessionRoutes sets up login session management.
func SetupAdminSessionRoutes(authenticatedGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	adminRoutes := authenticatedGroup.Group("/admin")
	adminRoutes.Use(middleware.RoleAuthMiddleware(adminOnly...))
	{
		adminRoutes.GET("/logins", authHandler.GetLoginSessions)
		adminRoutes.POST("/logout/:id", authHandler.TerminateLoginSession)
	}
}

// SetupMenuRoutes sets up the menu routes. Everyone reads, admins write.
func SetupMenuRoutes(authenticatedGroup *gin.RouterGroup, menuHandler *handlers.MenuHandler) {
	menuRoutes := authenticatedGroup.Group("/menu")
	{
		menuRoutes.GET("", menuHandler.GetMenuItems)
		menuRoutes.GET("/:id", menuHandler.GetMenuItemByID)

		admin := menuRoutes.Group("")
		admin.Use(middleware.RoleAuthMiddleware(adminOnly...))
		admin.POST("", menuHandler.CreateMenuItem)
		admin.PUT("/:id", menuHandler.UpdateMenuItem)
		admin.DELETE("/:id", menuHandler.DeleteMenuItem)
		admin.GET("/:id/movements", menuHandler.GetStockMovements)
	}
}

// SetupTableRoutes sets up tables and the per-table draft routes.
func SetupTableRoutes(authenticatedGroup *gin.RouterGroup, tableHandler *handlers.TableHandler, draftHandler *handlers.DraftHandler) {
	tableRoutes := authenticatedGroup.Group("/tables")
	tableRoutes.Use(middleware.RoleAuthMiddleware(allStaff...))
	{
		tableRoutes.GET("", tableHandler.GetTables)
		tableRoutes.PUT("/:id/toggle", tableHandler.ToggleTable)
		tableRoutes.POST("", middleware.RoleAuthMiddleware(adminOnly...), tableHandler.CreateTable)
		tableRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(adminOnly...), tableHandler.DeleteTable)

		tableRoutes.GET("/:id/draft", draftHandler.GetDraft)
		tableRoutes.POST("/:id/draft/items", draftHandler.AddItem)
		tableRoutes.POST("/:id/draft/items/:index/increase", draftHandler.IncreaseQty)
		tableRoutes.POST("/:id/draft/items/:index/decrease", draftHandler.DecreaseQty)
		tableRoutes.DELETE("/:id/draft/items/:index", draftHandler.RemoveItem)
		tableRoutes.PUT("/:id/draft/phone", draftHandler.SetPhone)
		tableRoutes.POST("/:id/draft/save", draftHandler.Save)
	}
}

// SetupOrderRoutes sets up the order routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware(allStaff...))
	{
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.PUT("/draft", orderHandler.UpsertDraft)

		admin := orderRoutes.Group("")
		admin.Use(middleware.RoleAuthMiddleware(adminOnly...))
		admin.GET("/history", orderHandler.GetBillingHistory)
		admin.POST("/history/purge", orderHandler.PurgeHistory)
		admin.PATCH("/:id", orderHandler.UpdateOrder)
		admin.PATCH("/:id/status", orderHandler.UpdateOrderStatus)
		admin.POST("/:id/finalize", orderHandler.FinalizeOrder)
		admin.DELETE("/:id", orderHandler.DeleteOrder)

		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
	}
}

// SetupAnalyticsRoutes sets up the sales report routes.
func SetupAnalyticsRoutes(authenticatedGroup *gin.RouterGroup, analyticsHandler *handlers.AnalyticsHandler) {
	analyticsRoutes := authenticatedGroup.Group("/analytics")
	analyticsRoutes.Use(middleware.RoleAuthMiddleware(adminOnly...))
	{
		analyticsRoutes.GET("/summary", analyticsHandler.GetSummary)
		analyticsRoutes.GET("/daily-totals", analyticsHandler.GetDailyTotals)
		analyticsRoutes.GET("/best-sellers", analyticsHandler.GetBestSellers)
		analyticsRoutes.GET("/total-by-date", analyticsHandler.GetTotalByDate)
		analyticsRoutes.GET("/highest-sales-day", analyticsHandler.GetHighestSalesDay)
	}
}
