package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"nutriplan-crm/config"
	"nutriplan-crm/internal/handlers"
	"nutriplan-crm/internal/routes"
	"nutriplan-crm/internal/store"
	"nutriplan-crm/internal/workflow"
	"nutriplan-crm/models"
)

func main() {
	ctx := context.Background()

	config.InitJWT()

	db, err := config.ConnectDB()
	if err != nil {
		slog.Error("Критическая ошибка подключения к БД", "error", err)
		os.Exit(1)
	}
	slog.Info("Успешное подключение к базе данных!")

	if err := db.AutoMigrate(
		&models.User{},
		&models.NutritionProgram{},
		&models.Menu{},
		&models.MenuIngredient{},
		&models.MenuPlan{},
		&models.MenuAssignment{},
	); err != nil {
		slog.Error("Ошибка миграции схемы БД", "error", err)
		os.Exit(1)
	}

	rdb := config.ConnectRedis(ctx)

	// ИИ-ассистент необязателен: без ключа просто недоступен.
	if err := config.InitGoogleServices(); err != nil {
		slog.Warn("Gemini API недоступен", "error", err)
	}

	hub := handlers.NewHub()
	go hub.Run()

	facade := workflow.New(
		store.NewGormStore(db),
		workflow.NewRedisReportCache(rdb),
		hub,
	)
	handler := handlers.NewHandler(facade, db, hub)

	r := gin.Default()
	routes.SetupRoutes(r, handler, db, rdb)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	slog.Info("Сервер запускается", "port", port)
	if err := r.Run(":" + port); err != nil {
		slog.Error("Сервер остановился с ошибкой", "error", err)
		os.Exit(1)
	}
}
