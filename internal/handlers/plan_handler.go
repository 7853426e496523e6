package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"nutriplan-crm/internal/workflow"
	"nutriplan-crm/models"
)

// --- Структуры для входящих данных ---

type createPlanPayload struct {
	ProgramID   uint                  `json:"programId" binding:"required"`
	Name        string                `json:"name" binding:"required"`
	Description string                `json:"description"`
	StartDate   string                `json:"startDate" binding:"required"`
	EndDate     string                `json:"endDate" binding:"required"`
	Rules       []models.PlanningRule `json:"planningRules"`
}

type updatePlanPayload struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	StartDate   *string               `json:"startDate"`
	EndDate     *string               `json:"endDate"`
	Rules       []models.PlanningRule `json:"planningRules"`
}

type transitionPayload struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

// ListPlansHandler возвращает отфильтрованный и пагинированный список планов.
func (h *Handler) ListPlansHandler(c *gin.Context) {
	var plans []models.MenuPlan
	var totalRows int64

	query := h.DB.Model(&models.MenuPlan{})
	if programID := c.Query("programId"); programID != "" {
		query = query.Where("program_id = ?", programID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	// Архивные планы скрыты из активных списков, если их не запросили явно.
	if c.Query("includeArchived") != "true" {
		query = query.Where("is_archived = ?", false)
	}

	if err := query.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать планы"})
		return
	}
	if err := query.Scopes(Paginate(c)).Order("start_date DESC, id DESC").Find(&plans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список планов"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, plans, totalRows))
}

// GetPlanHandler возвращает один план по id.
func (h *Handler) GetPlanHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var plan models.MenuPlan
	if err := h.DB.Preload("Program").First(&plan, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "План не найден"})
		return
	}
	c.JSON(http.StatusOK, plan)
}

// CreatePlanHandler создаёт план в статусе DRAFT.
func (h *Handler) CreatePlanHandler(c *gin.Context) {
	var payload createPlanPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	startDate, endDate, ok := parseDateRange(c, payload.StartDate, payload.EndDate)
	if !ok {
		return
	}

	plan, err := h.Facade.CreatePlan(c.Request.Context(), workflow.CreatePlanInput{
		ProgramID:   payload.ProgramID,
		Name:        payload.Name,
		Description: payload.Description,
		StartDate:   startDate,
		EndDate:     endDate,
		CreatedByID: actorID(c),
		Role:        actorRole(c),
		Rules:       payload.Rules,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// UpdatePlanHandler редактирует черновик плана.
func (h *Handler) UpdatePlanHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload updatePlanPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	input := workflow.UpdatePlanInput{
		Name:        payload.Name,
		Description: payload.Description,
		Rules:       payload.Rules,
		Role:        actorRole(c),
	}
	if payload.StartDate != nil {
		parsed, err := time.Parse("2006-01-02", *payload.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректная дата начала"})
			return
		}
		input.StartDate = &parsed
	}
	if payload.EndDate != nil {
		parsed, err := time.Parse("2006-01-02", *payload.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректная дата окончания"})
			return
		}
		input.EndDate = &parsed
	}

	plan, err := h.Facade.UpdatePlan(c.Request.Context(), id, input)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// DeletePlanHandler удаляет черновик плана вместе с назначениями.
func (h *Handler) DeletePlanHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.Facade.DeletePlan(c.Request.Context(), id, actorRole(c)); err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "План удалён"})
}

// --- Переходы workflow ---

func (h *Handler) SubmitPlanHandler(c *gin.Context)   { h.transitionHandler(c, h.Facade.SubmitPlan) }
func (h *Handler) ApprovePlanHandler(c *gin.Context)  { h.transitionHandler(c, h.Facade.ApprovePlan) }
func (h *Handler) RejectPlanHandler(c *gin.Context)   { h.transitionHandler(c, h.Facade.RejectPlan) }
func (h *Handler) PublishPlanHandler(c *gin.Context)  { h.transitionHandler(c, h.Facade.PublishPlan) }
func (h *Handler) ArchivePlanHandler(c *gin.Context)  { h.transitionHandler(c, h.Facade.ArchivePlan) }
func (h *Handler) CancelPlanHandler(c *gin.Context)   { h.transitionHandler(c, h.Facade.CancelPlan) }
func (h *Handler) CompletePlanHandler(c *gin.Context) { h.transitionHandler(c, h.Facade.CompletePlan) }

type transitionFunc func(ctx context.Context, in workflow.TransitionInput) (*models.MenuPlan, error)

func (h *Handler) transitionHandler(c *gin.Context, fn transitionFunc) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload transitionPayload
	// Тело запроса необязательно: причина нужна только для reject.
	_ = c.ShouldBindJSON(&payload)
	reason := payload.Reason
	if reason == "" {
		reason = payload.Notes
	}

	plan, err := fn(c.Request.Context(), workflow.TransitionInput{
		PlanID:  id,
		Role:    actorRole(c),
		ActorID: actorID(c),
		Reason:  reason,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// --- Вспомогательные функции ---

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный идентификатор"})
		return 0, false
	}
	return uint(id), true
}

func parseDateRange(c *gin.Context, start, end string) (time.Time, time.Time, bool) {
	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректная дата начала"})
		return time.Time{}, time.Time{}, false
	}
	endDate, err := time.Parse("2006-01-02", end)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректная дата окончания"})
		return time.Time{}, time.Time{}, false
	}
	return startDate, endDate, true
}
