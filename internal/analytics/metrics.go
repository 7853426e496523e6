// Package analytics считает отчёт по плану питания из снимка назначений.
// Все функции чистые и детерминированные: один и тот же набор назначений
// даёт побайтово одинаковый отчёт. Пакет ничего не пишет в хранилище.
package analytics

import (
	"nutriplan-crm/models"
)

// Coverage возвращает процент календарных дней плана, в которых есть хотя бы
// одно назначение.
func Coverage(plan *models.MenuPlan, assignments []models.MenuAssignment) float64 {
	days := plan.CalendarDays()
	if days <= 0 {
		return 0
	}
	assigned := make(map[string]bool)
	for _, a := range assignments {
		assigned[dayKey(a)] = true
	}
	return clampPercent(float64(len(assigned)) / float64(days) * 100)
}

// VarietyScore — доля уникальных меню среди всех назначений, в процентах.
func VarietyScore(assignments []models.MenuAssignment) float64 {
	if len(assignments) == 0 {
		return 0
	}
	unique := make(map[uint]bool)
	for _, a := range assignments {
		unique[a.MenuID] = true
	}
	return clampPercent(float64(len(unique)) / float64(len(assignments)) * 100)
}

// UniqueMenus возвращает число различных меню в назначениях.
func UniqueMenus(assignments []models.MenuAssignment) int {
	unique := make(map[uint]bool)
	for _, a := range assignments {
		unique[a.MenuID] = true
	}
	return len(unique)
}

// IngredientDiversity — отношение различных ингредиентов ко всем
// задействованным позициям состава, в процентах. Меню, которых нет в
// справочнике menus, пропускаются.
func IngredientDiversity(assignments []models.MenuAssignment, menus map[uint]models.Menu) float64 {
	distinct := make(map[uint]bool)
	totalSlots := 0
	for _, a := range assignments {
		menu, ok := menus[a.MenuID]
		if !ok {
			continue
		}
		for _, ingredient := range menu.Ingredients {
			distinct[ingredient.InventoryItemID] = true
			totalSlots++
		}
	}
	if totalSlots == 0 {
		return 0
	}
	return clampPercent(float64(len(distinct)) / float64(totalSlots) * 100)
}

// AverageCostPerAssignment — средняя стоимость одного назначения.
func AverageCostPerAssignment(assignments []models.MenuAssignment) float64 {
	if len(assignments) == 0 {
		return 0
	}
	return TotalCost(assignments) / float64(len(assignments))
}

// AverageCostPerDay — средняя стоимость на календарный день с назначениями.
// Знаменатель — дни, а не назначения: несколько приёмов пищи в один день не
// раздувают знаменатель.
func AverageCostPerDay(assignments []models.MenuAssignment) float64 {
	assigned := make(map[string]bool)
	for _, a := range assignments {
		assigned[dayKey(a)] = true
	}
	if len(assigned) == 0 {
		return 0
	}
	return TotalCost(assignments) / float64(len(assigned))
}

// TotalCost — суммарная плановая стоимость назначений.
func TotalCost(assignments []models.MenuAssignment) float64 {
	total := 0.0
	for _, a := range assignments {
		total += a.EstimatedCost
	}
	return total
}

func dayKey(a models.MenuAssignment) string {
	return models.DateOnly(a.AssignedDate).Format("2006-01-02")
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
