// Package store определяет интерфейс доступа к данным доменного ядра.
// Доменные пакеты получают Store через конструктор и не знают про GORM:
// жизненным циклом соединения владеет точка входа процесса.
package store

import (
	"context"
	"time"

	"nutriplan-crm/models"
)

// AssignmentFilter — необязательные фильтры выборки назначений.
type AssignmentFilter struct {
	DateFrom *time.Time
	DateTo   *time.Time
	MealType *models.MealType
}

// Store — контракт хранилища для доменного ядра. Реализация на GORM — в
// этом же пакете, реализация в памяти используется тестами.
type Store interface {
	GetPlan(ctx context.Context, id uint) (*models.MenuPlan, error)
	SavePlan(ctx context.Context, plan *models.MenuPlan) error
	DeletePlan(ctx context.Context, id uint) error

	GetAssignment(ctx context.Context, id uint) (*models.MenuAssignment, error)
	// ListAssignments возвращает назначения плана, стабильно упорядоченные
	// по (дата, порядок приёма пищи).
	ListAssignments(ctx context.Context, planID uint, filter AssignmentFilter) ([]models.MenuAssignment, error)
	SaveAssignment(ctx context.Context, a *models.MenuAssignment) error
	DeleteAssignment(ctx context.Context, id uint) error

	GetMenu(ctx context.Context, id uint) (*models.Menu, error)
	GetProgram(ctx context.Context, id uint) (*models.NutritionProgram, error)

	// InTransaction выполняет fn атомарно: либо все записи внутри fn
	// фиксируются, либо ни одна. Проверка слота + вставка и смена статуса
	// плана обязаны проходить через транзакцию.
	InTransaction(ctx context.Context, fn func(tx Store) error) error
}
