package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"nutriplan-crm/models"
)

// UserResponse — представление пользователя без пароля.
type UserResponse struct {
	ID       uint             `json:"ID"`
	Login    string           `json:"login"`
	FullName string           `json:"fullName"`
	Role     models.ActorRole `json:"role"`
}

func toUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Login:    user.Login,
		FullName: user.FullName,
		Role:     user.Role,
	}
}

// ListUsersHandler возвращает пагинированный список пользователей.
func (h *Handler) ListUsersHandler(c *gin.Context) {
	var users []models.User

	query := h.DB.Order("id asc")

	// Полный список без пагинации — для выпадающих списков.
	if c.Query("all") == "true" {
		if err := query.Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список пользователей"})
			return
		}
		responseData := make([]UserResponse, 0, len(users))
		for _, user := range users {
			responseData = append(responseData, toUserResponse(user))
		}
		c.JSON(http.StatusOK, gin.H{"data": responseData})
		return
	}

	var totalRows int64
	h.DB.Model(&models.User{}).Count(&totalRows)

	if err := query.Scopes(Paginate(c)).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список пользователей"})
		return
	}
	responseData := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responseData = append(responseData, toUserResponse(user))
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, responseData, totalRows))
}

func (h *Handler) GetUserHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID пользователя"})
		return
	}
	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

type createUserPayload struct {
	Login    string           `json:"login" binding:"required"`
	Password string           `json:"password" binding:"required,min=8"`
	FullName string           `json:"fullName"`
	Role     models.ActorRole `json:"role" binding:"required"`
}

// CreateUserHandler создаёт пользователя. Доступен только администратору,
// роль проверяется в маршрутах.
func (h *Handler) CreateUserHandler(c *gin.Context) {
	var payload createUserPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	if !validRole(payload.Role) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Неизвестная роль: " + string(payload.Role)})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обработать пароль"})
		return
	}

	user := models.User{
		Login:    payload.Login,
		Password: string(hashed),
		FullName: payload.FullName,
		Role:     payload.Role,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Пользователь с таким логином уже существует"})
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

type updateUserPayload struct {
	FullName *string           `json:"fullName"`
	Role     *models.ActorRole `json:"role"`
	Password *string           `json:"password"`
}

func (h *Handler) UpdateUserHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID пользователя"})
		return
	}
	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
		return
	}

	var payload updateUserPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	if payload.FullName != nil {
		user.FullName = *payload.FullName
	}
	if payload.Role != nil {
		if !validRole(*payload.Role) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Неизвестная роль: " + string(*payload.Role)})
			return
		}
		user.Role = *payload.Role
	}
	if payload.Password != nil {
		if len(*payload.Password) < 8 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Пароль должен быть не короче 8 символов"})
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*payload.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обработать пароль"})
			return
		}
		user.Password = string(hashed)
	}

	if err := h.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить пользователя"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h *Handler) DeleteUserHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID пользователя"})
		return
	}
	if err := h.DB.Delete(&models.User{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить пользователя"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Пользователь удалён"})
}

func validRole(role models.ActorRole) bool {
	switch role {
	case models.RoleAdmin, models.RolePlanner, models.RoleNutritionist, models.RoleApprover, models.RoleViewer:
		return true
	}
	return false
}
