package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nutriplan-crm/internal/allocator"
	"nutriplan-crm/internal/store"
	"nutriplan-crm/models"
)

type createAssignmentPayload struct {
	MenuID         uint   `json:"menuId" binding:"required"`
	Date           string `json:"date" binding:"required"`
	MealType       string `json:"mealType" binding:"required"`
	Portions       int    `json:"portions" binding:"required"`
	IsSubstitution bool   `json:"isSubstitution"`
	Notes          string `json:"notes"`
}

type updateAssignmentPayload struct {
	MenuID         *uint    `json:"menuId"`
	Date           *string  `json:"date"`
	MealType       *string  `json:"mealType"`
	Portions       *int     `json:"portions"`
	Status         *string  `json:"status"`
	Notes          *string  `json:"notes"`
	ActualPortions *int     `json:"actualPortions"`
	ActualCost     *float64 `json:"actualCost"`
}

type autoFillPayload struct {
	MenuIDs   []uint   `json:"menuIds" binding:"required"`
	MealTypes []string `json:"mealTypes"`
	Portions  int      `json:"portions" binding:"required"`
	Seed      int64    `json:"seed"`
}

// ListAssignmentsHandler возвращает назначения плана для календаря.
// Порядок стабильный: (дата, приём пищи).
func (h *Handler) ListAssignmentsHandler(c *gin.Context) {
	planID, ok := parseID(c)
	if !ok {
		return
	}

	filter := store.AssignmentFilter{}
	if from := c.Query("dateFrom"); from != "" {
		parsed, err := time.Parse("2006-01-02", from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректная дата dateFrom"})
			return
		}
		filter.DateFrom = &parsed
	}
	if to := c.Query("dateTo"); to != "" {
		parsed, err := time.Parse("2006-01-02", to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректная дата dateTo"})
			return
		}
		filter.DateTo = &parsed
	}
	if mealType := c.Query("mealType"); mealType != "" {
		mt := models.MealType(mealType)
		filter.MealType = &mt
	}

	assignments, err := h.Facade.ListAssignments(c.Request.Context(), planID, filter)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": assignments})
}

// CreateAssignmentHandler размещает меню в слот плана.
func (h *Handler) CreateAssignmentHandler(c *gin.Context) {
	planID, ok := parseID(c)
	if !ok {
		return
	}
	var payload createAssignmentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректная дата назначения"})
		return
	}

	assignment, err := h.Facade.CreateAssignment(c.Request.Context(), allocator.CreateInput{
		PlanID:         planID,
		MenuID:         payload.MenuID,
		Date:           date,
		MealType:       models.MealType(payload.MealType),
		Portions:       payload.Portions,
		Role:           actorRole(c),
		IsSubstitution: payload.IsSubstitution,
		Notes:          payload.Notes,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

// UpdateAssignmentHandler изменяет назначение (порции, меню, слот, статус).
func (h *Handler) UpdateAssignmentHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload updateAssignmentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	input := allocator.UpdateInput{
		MenuID:         payload.MenuID,
		Portions:       payload.Portions,
		Notes:          payload.Notes,
		ActualPortions: payload.ActualPortions,
		ActualCost:     payload.ActualCost,
	}
	if payload.Date != nil {
		parsed, err := time.Parse("2006-01-02", *payload.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректная дата назначения"})
			return
		}
		input.Date = &parsed
	}
	if payload.MealType != nil {
		mt := models.MealType(*payload.MealType)
		input.MealType = &mt
	}
	if payload.Status != nil {
		status := models.AssignmentStatus(*payload.Status)
		input.Status = &status
	}

	assignment, err := h.Facade.UpdateAssignment(c.Request.Context(), id, input, actorRole(c))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// DeleteAssignmentHandler удаляет назначение из редактируемого плана.
func (h *Handler) DeleteAssignmentHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.Facade.DeleteAssignment(c.Request.Context(), id, actorRole(c)); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Назначение удалено"})
}

// AutoFillHandler заполняет свободные слоты плана меню из пула.
// Seed делает выбор воспроизводимым.
func (h *Handler) AutoFillHandler(c *gin.Context) {
	planID, ok := parseID(c)
	if !ok {
		return
	}
	var payload autoFillPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	mealTypes := make([]models.MealType, 0, len(payload.MealTypes))
	for _, mt := range payload.MealTypes {
		mealTypes = append(mealTypes, models.MealType(mt))
	}
	seed := payload.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	created, err := h.Facade.AutoFill(c.Request.Context(), allocator.AutoFillInput{
		PlanID:    planID,
		MenuIDs:   payload.MenuIDs,
		MealTypes: mealTypes,
		Portions:  payload.Portions,
		Role:      actorRole(c),
		Seed:      seed,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": len(created), "assignments": created})
}
