package store

import (
	"sort"

	"nutriplan-crm/models"
)

// SortAssignments упорядочивает назначения по (дата, порядок приёма пищи).
// Детерминированный порядок нужен календарю на фронтенде и тестам.
func SortAssignments(assignments []models.MenuAssignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		di := models.DateOnly(assignments[i].AssignedDate)
		dj := models.DateOnly(assignments[j].AssignedDate)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return assignments[i].MealType.OrderIndex() < assignments[j].MealType.OrderIndex()
	})
}
