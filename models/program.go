package models

import "gorm.io/gorm"

// NutritionProgram — программа питания, которой принадлежат планы.
// Целевые показатели используются аналитикой для проверки соответствия.
type NutritionProgram struct {
	gorm.Model
	Name             string `gorm:"size:255;not null" json:"name"`
	Description      string `gorm:"type:text"         json:"description"`
	TargetRecipients int    `json:"targetRecipients"`

	// Целевая калорийность дня и допуск в процентах (включительно).
	CaloriesTarget     float64 `json:"caloriesTarget"`
	CaloriesTolerance  float64 `gorm:"default:10" json:"caloriesTolerance"`
	ProteinTargetGrams float64 `json:"proteinTargetGrams"`
}

func (NutritionProgram) TableName() string { return "nutrition_programs" }

// HasNutritionTargets сообщает, заданы ли целевые показатели: без них
// раздел соответствия в аналитике помечается как недоступный.
func (p *NutritionProgram) HasNutritionTargets() bool {
	return p != nil && p.CaloriesTarget > 0 && p.ProteinTargetGrams > 0
}
