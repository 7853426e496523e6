package models

import "gorm.io/gorm"

// User определяет модель пользователя в базе данных.
// Роль — закрытый набор (см. ActorRole), никаких произвольных строк.
type User struct {
	gorm.Model
	Login    string    `gorm:"unique;not null" json:"login"`
	Password string    `gorm:"not null"        json:"-"`
	FullName string    `gorm:"size:255"        json:"fullName"`
	Role     ActorRole `gorm:"size:32;not null;default:VIEWER" json:"role"`
}
