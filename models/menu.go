package models

import "gorm.io/gorm"

// Menu — блюдо/комплект из каталога меню программы.
type Menu struct {
	gorm.Model
	Name           string   `gorm:"size:255;not null" json:"name"`
	Description    string   `gorm:"type:text"         json:"description"`
	MealType       MealType `gorm:"size:32;index"     json:"mealType"`
	CostPerServing float64  `gorm:"not null"          json:"costPerServing"`

	// Пищевая ценность одной порции.
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`

	IsActive    bool             `gorm:"default:true" json:"isActive"`
	Ingredients []MenuIngredient `gorm:"foreignKey:MenuID" json:"ingredients,omitempty"`
}

// MenuIngredient — позиция состава меню со ссылкой на складскую номенклатуру.
type MenuIngredient struct {
	gorm.Model
	MenuID          uint    `gorm:"not null;index" json:"menuId"`
	InventoryItemID uint    `gorm:"not null"       json:"inventoryItemId"`
	Name            string  `gorm:"size:255"       json:"name"`
	Quantity        float64 `json:"quantity"`
	Unit            string  `gorm:"size:32" json:"unit"`
}
