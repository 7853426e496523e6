package config

import (
	"log/slog"
	"os"
)

// JwtKey — ключ подписи токенов. Инициализируется при старте процесса.
var JwtKey []byte

// InitJWT читает JWT_SECRET; без него запускаться нельзя.
func InitJWT() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		slog.Error("Критическая ошибка: переменная окружения JWT_SECRET не установлена.")
		os.Exit(1)
	}
	JwtKey = []byte(secret)
}
