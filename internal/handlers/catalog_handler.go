package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"nutriplan-crm/models"
)

// Справочники меню и программ питания. Планы ссылаются на них по id,
// поэтому редактирование меню не меняет уже созданные назначения:
// аллокатор снимает снимок стоимости и пищевой ценности.

func (h *Handler) ListMenusHandler(c *gin.Context) {
	var menus []models.Menu

	query := h.DB.Preload("Ingredients").Order("id asc")
	if mealType := c.Query("mealType"); mealType != "" {
		query = query.Where("meal_type = ?", mealType)
	}
	if c.Query("includeInactive") != "true" {
		query = query.Where("is_active = ?", true)
	}

	if c.Query("all") == "true" {
		if err := query.Find(&menus).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список меню"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": menus})
		return
	}

	var totalRows int64
	h.DB.Model(&models.Menu{}).Count(&totalRows)
	if err := query.Scopes(Paginate(c)).Find(&menus).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список меню"})
		return
	}
	c.JSON(http.StatusOK, CreatePaginatedResponse(c, menus, totalRows))
}

func (h *Handler) GetMenuHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID меню"})
		return
	}
	var menu models.Menu
	if err := h.DB.Preload("Ingredients").First(&menu, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Меню не найдено"})
		return
	}
	c.JSON(http.StatusOK, menu)
}

type menuPayload struct {
	Name           string                  `json:"name" binding:"required"`
	Description    string                  `json:"description"`
	MealType       models.MealType         `json:"mealType" binding:"required"`
	CostPerServing float64                 `json:"costPerServing" binding:"required,gt=0"`
	Calories       float64                 `json:"calories"`
	Protein        float64                 `json:"protein"`
	Carbs          float64                 `json:"carbs"`
	Fat            float64                 `json:"fat"`
	IsActive       *bool                   `json:"isActive"`
	Ingredients    []models.MenuIngredient `json:"ingredients"`
}

func (h *Handler) CreateMenuHandler(c *gin.Context) {
	var payload menuPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	if !payload.MealType.Valid() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Неизвестный тип приёма пищи: " + string(payload.MealType)})
		return
	}

	menu := models.Menu{
		Name:           payload.Name,
		Description:    payload.Description,
		MealType:       payload.MealType,
		CostPerServing: payload.CostPerServing,
		Calories:       payload.Calories,
		Protein:        payload.Protein,
		Carbs:          payload.Carbs,
		Fat:            payload.Fat,
		IsActive:       true,
		Ingredients:    payload.Ingredients,
	}
	if payload.IsActive != nil {
		menu.IsActive = *payload.IsActive
	}
	if err := h.DB.Create(&menu).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать меню"})
		return
	}
	c.JSON(http.StatusCreated, menu)
}

func (h *Handler) UpdateMenuHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID меню"})
		return
	}
	var menu models.Menu
	if err := h.DB.First(&menu, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Меню не найдено"})
		return
	}

	var payload menuPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	if !payload.MealType.Valid() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Неизвестный тип приёма пищи: " + string(payload.MealType)})
		return
	}

	menu.Name = payload.Name
	menu.Description = payload.Description
	menu.MealType = payload.MealType
	menu.CostPerServing = payload.CostPerServing
	menu.Calories = payload.Calories
	menu.Protein = payload.Protein
	menu.Carbs = payload.Carbs
	menu.Fat = payload.Fat
	if payload.IsActive != nil {
		menu.IsActive = *payload.IsActive
	}
	if err := h.DB.Save(&menu).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить меню"})
		return
	}
	c.JSON(http.StatusOK, menu)
}

func (h *Handler) ListProgramsHandler(c *gin.Context) {
	var programs []models.NutritionProgram
	if err := h.DB.Order("id asc").Find(&programs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список программ"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": programs})
}

func (h *Handler) GetProgramHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID программы"})
		return
	}
	var program models.NutritionProgram
	if err := h.DB.First(&program, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Программа не найдена"})
		return
	}
	c.JSON(http.StatusOK, program)
}

type programPayload struct {
	Name               string  `json:"name" binding:"required"`
	Description        string  `json:"description"`
	TargetRecipients   int     `json:"targetRecipients"`
	CaloriesTarget     float64 `json:"caloriesTarget"`
	CaloriesTolerance  float64 `json:"caloriesTolerance"`
	ProteinTargetGrams float64 `json:"proteinTargetGrams"`
}

func (h *Handler) CreateProgramHandler(c *gin.Context) {
	var payload programPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	program := models.NutritionProgram{
		Name:               payload.Name,
		Description:        payload.Description,
		TargetRecipients:   payload.TargetRecipients,
		CaloriesTarget:     payload.CaloriesTarget,
		CaloriesTolerance:  payload.CaloriesTolerance,
		ProteinTargetGrams: payload.ProteinTargetGrams,
	}
	if err := h.DB.Create(&program).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать программу"})
		return
	}
	c.JSON(http.StatusCreated, program)
}

func (h *Handler) UpdateProgramHandler(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID программы"})
		return
	}
	var program models.NutritionProgram
	if err := h.DB.First(&program, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Программа не найдена"})
		return
	}

	var payload programPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}
	program.Name = payload.Name
	program.Description = payload.Description
	program.TargetRecipients = payload.TargetRecipients
	program.CaloriesTarget = payload.CaloriesTarget
	program.CaloriesTolerance = payload.CaloriesTolerance
	program.ProteinTargetGrams = payload.ProteinTargetGrams

	if err := h.DB.Save(&program).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить программу"})
		return
	}
	c.JSON(http.StatusOK, program)
}
