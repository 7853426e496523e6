package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"nutriplan-crm/internal/handlers"
	"nutriplan-crm/internal/middleware"
)

// SetupRoutes инициализирует все маршруты приложения.
func SetupRoutes(r *gin.Engine, h *handlers.Handler, db *gorm.DB, rdb *redis.Client) {
	// --- Публичные маршруты ---
	r.POST("/login", h.LoginHandler)
	r.GET("/logout", h.LogoutHandler)

	// --- Защищенная группа маршрутов ---
	// Все маршруты в этой группе требуют валидный JWT токен.
	authRequired := r.Group("/")
	authRequired.Use(middleware.AuthMiddleware(db, rdb))
	{
		RegisterAPIRoutes(authRequired, h)
	}
}
