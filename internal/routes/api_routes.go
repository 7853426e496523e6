package routes

import (
	"github.com/gin-gonic/gin"

	"nutriplan-crm/internal/handlers"
	"nutriplan-crm/internal/middleware"
	"nutriplan-crm/models"
)

// RegisterAPIRoutes регистрирует все маршруты API, требующие аутентификации.
func RegisterAPIRoutes(api *gin.RouterGroup, h *handlers.Handler) {
	// Группа для всех API-запросов с префиксом /api
	apiGroup := api.Group("/api")
	{
		// --- ПЛАНЫ ПИТАНИЯ ---
		plans := apiGroup.Group("/plans")
		{
			plans.GET("", h.ListPlansHandler)
			plans.POST("", h.CreatePlanHandler)
			plans.GET("/:id", h.GetPlanHandler)
			plans.PUT("/:id", h.UpdatePlanHandler)
			plans.DELETE("/:id", h.DeletePlanHandler)

			// Переходы workflow: фасад сам проверяет роль и статус.
			plans.POST("/:id/submit", h.SubmitPlanHandler)
			plans.POST("/:id/approve", h.ApprovePlanHandler)
			plans.POST("/:id/reject", h.RejectPlanHandler)
			plans.POST("/:id/publish", h.PublishPlanHandler)
			plans.POST("/:id/archive", h.ArchivePlanHandler)
			plans.POST("/:id/cancel", h.CancelPlanHandler)
			plans.POST("/:id/complete", h.CompletePlanHandler)

			// Назначения внутри плана.
			plans.GET("/:id/assignments", h.ListAssignmentsHandler)
			plans.POST("/:id/assignments", h.CreateAssignmentHandler)
			plans.POST("/:id/autofill", h.AutoFillHandler)

			// Аналитика.
			plans.GET("/:id/analytics", h.GetAnalyticsHandler)
			plans.GET("/:id/analytics/export", h.ExportAnalyticsHandler)
			plans.GET("/:id/advisor", h.AdvisorHandler)
		}

		assignments := apiGroup.Group("/assignments")
		{
			assignments.PUT("/:id", h.UpdateAssignmentHandler)
			assignments.DELETE("/:id", h.DeleteAssignmentHandler)
		}

		// Справочники: меню и программы питания.
		menus := apiGroup.Group("/menus")
		{
			menus.GET("", h.ListMenusHandler)
			menus.GET("/:id", h.GetMenuHandler)
			menus.POST("", middleware.RoleMiddleware(models.RoleNutritionist), h.CreateMenuHandler)
			menus.PUT("/:id", middleware.RoleMiddleware(models.RoleNutritionist), h.UpdateMenuHandler)
		}

		programs := apiGroup.Group("/programs")
		{
			programs.GET("", h.ListProgramsHandler)
			programs.GET("/:id", h.GetProgramHandler)
			programs.POST("", middleware.RoleMiddleware(models.RoleNutritionist), h.CreateProgramHandler)
			programs.PUT("/:id", middleware.RoleMiddleware(models.RoleNutritionist), h.UpdateProgramHandler)
		}

		// Управление пользователями — только администратор.
		users := apiGroup.Group("/users", middleware.RoleMiddleware())
		{
			users.GET("", h.ListUsersHandler)
			users.GET("/:id", h.GetUserHandler)
			users.POST("", h.CreateUserHandler)
			users.PUT("/:id", h.UpdateUserHandler)
			users.DELETE("/:id", h.DeleteUserHandler)
		}

		// События планов для панели (websocket).
		apiGroup.GET("/events", h.PlanEventsHandler)
	}
}
