package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nutriplan-crm/internal/workflow"
	"nutriplan-crm/models"
)

// Handler держит зависимости HTTP-слоя. Доменные операции идут через фасад,
// списковые выборки для таблиц — напрямую через GORM.
type Handler struct {
	Facade *workflow.Facade
	DB     *gorm.DB
	Hub    *Hub
}

func NewHandler(facade *workflow.Facade, db *gorm.DB, hub *Hub) *Handler {
	return &Handler{Facade: facade, DB: db, Hub: hub}
}

// respondDomainError переводит типизированные ошибки ядра в коды HTTP.
func respondDomainError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	var permissionErr *models.PermissionError
	var stateErr *models.StateConflictError
	var rangeErr *models.RangeError
	var notFoundErr *models.NotFoundError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationErr.Error()})
	case errors.As(err, &permissionErr):
		c.JSON(http.StatusForbidden, gin.H{"error": permissionErr.Error()})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, gin.H{"error": stateErr.Error()})
	case errors.As(err, &rangeErr):
		c.JSON(http.StatusConflict, gin.H{"error": rangeErr.Error()})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка сервера"})
	}
}

func actorRole(c *gin.Context) models.ActorRole {
	return models.ActorRole(c.GetString("role"))
}

func actorID(c *gin.Context) uint {
	return c.GetUint("user_id")
}
