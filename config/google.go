package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient — модель для подсказок рецензента плана; nil, пока
// InitGoogleServices не отработал.
var GeminiClient *genai.GenerativeModel

// InitGoogleServices инициализирует клиент Gemini API. Сервис необязателен:
// без GEMINI_API_KEY подсказки рецензента просто недоступны.
func InitGoogleServices() error {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return fmt.Errorf("unable to create Gemini client: %v", err)
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-1.5-flash"
	}
	GeminiClient = client.GenerativeModel(model)
	slog.Info("Gemini API client initialized", "model", model)

	return nil
}
