package config

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ConnectDB открывает подключение к PostgreSQL по DB_URL и возвращает его.
// Жизненным циклом соединения владеет точка входа процесса, доменный код
// получает хранилище через интерфейс, а не через глобальный клиент.
func ConnectDB() (*gorm.DB, error) {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		return nil, fmt.Errorf("переменная окружения DB_URL не установлена")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	return db, nil
}
