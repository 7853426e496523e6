package models

import (
	"time"

	"gorm.io/gorm"
)

// MenuAssignment — одно меню, назначенное в слот (дата + приём пищи) плана.
// Составной уникальный индекс idx_plan_slot закрывает гонку двойного
// бронирования слота на уровне БД, аллокатор дополнительно проверяет слот
// в транзакции.
type MenuAssignment struct {
	ID        uint           `gorm:"primaryKey" json:"ID"`
	CreatedAt time.Time      `               json:"CreatedAt"`
	UpdatedAt time.Time      `               json:"UpdatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index"   json:"DeletedAt"`

	PlanID       uint      `gorm:"column:plan_id;not null;uniqueIndex:idx_plan_slot"       json:"planId"`
	MenuID       uint      `gorm:"column:menu_id;not null;index"                           json:"menuId"`
	AssignedDate time.Time `gorm:"column:assigned_date;not null;uniqueIndex:idx_plan_slot" json:"assignedDate"`
	MealType     MealType  `gorm:"column:meal_type;size:32;not null;uniqueIndex:idx_plan_slot" json:"mealType"`

	PlannedPortions int     `gorm:"column:planned_portions;not null" json:"plannedPortions"`
	UnitCost        float64 `gorm:"column:unit_cost"                 json:"unitCost"`
	EstimatedCost   float64 `gorm:"column:estimated_cost"            json:"estimatedCost"`

	// Снимок пищевой ценности меню на момент назначения: последующее
	// редактирование меню не меняет историю плана.
	Calories float64 `gorm:"column:calories" json:"calories"`
	Protein  float64 `gorm:"column:protein"  json:"protein"`
	Carbs    float64 `gorm:"column:carbs"    json:"carbs"`
	Fat      float64 `gorm:"column:fat"      json:"fat"`

	Status         AssignmentStatus `gorm:"column:status;size:32;default:PLANNED" json:"status"`
	IsSubstitution bool             `gorm:"column:is_substitution;default:false"  json:"isSubstitution"`
	Notes          string           `gorm:"column:notes"                          json:"notes,omitempty"`

	// Фактические данные после производства, заполняются позже.
	ActualPortions *int     `gorm:"column:actual_portions" json:"actualPortions,omitempty"`
	ActualCost     *float64 `gorm:"column:actual_cost"     json:"actualCost,omitempty"`

	// Связи
	Plan *MenuPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Menu *Menu     `gorm:"foreignKey:MenuID" json:"menu,omitempty"`
}

func (MenuAssignment) TableName() string { return "menu_assignments" }
