package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"

	"nutriplan-crm/config"
)

// AdvisorHandler просит Gemini сформулировать замечания рецензента по
// аналитике плана. Сервис совещательный: без настроенного ключа — 503,
// ошибка генерации не влияет на сам план.
func (h *Handler) AdvisorHandler(c *gin.Context) {
	if config.GeminiClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ИИ-ассистент не настроен"})
		return
	}

	planID, ok := parseID(c)
	if !ok {
		return
	}
	report, err := h.Facade.GetAnalytics(c.Request.Context(), planID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	advisorPrompt := fmt.Sprintf(
		"Ты — опытный диетолог, рецензирующий план питания программы. "+
			"По сводке ниже сформулируй 3-5 кратких замечаний для согласующего: что в порядке, что требует внимания. "+
			"Отвечай на русском языке, без вступлений и выводов, только список замечаний.\n"+
			"Покрытие: %.1f%% (%d из %d дней). Назначений: %d, уникальных меню: %d, разнообразие: %.1f%%. "+
			"Общая стоимость: %.2f, средняя на день: %.2f. Доля дней, соответствующих целям питания: %.0f%%. Нарушений правил: %d.",
		report.Summary.CoveragePercent, report.Summary.AssignedDays, report.Summary.CalendarDays,
		report.Summary.TotalAssignments, report.Variety.UniqueMenus, report.Variety.VarietyScore,
		report.Cost.Summary.TotalPlanCost, report.Cost.Summary.AverageCostPerDay,
		report.Compliance.ComplianceRate*100, len(report.RuleViolations))

	resp, err := config.GeminiClient.GenerateContent(ctx, genai.Text(advisorPrompt))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Не удалось получить ответ ИИ-ассистента"})
		return
	}

	var adviceText string
	if len(resp.Candidates) > 0 && len(resp.Candidates[0].Content.Parts) > 0 {
		if textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text); ok {
			adviceText = string(textPart)
		}
	}
	if adviceText == "" {
		adviceText = "К сожалению, я не смог обработать ваш запрос. Попробуйте переформулировать."
	}

	c.JSON(http.StatusOK, gin.H{"planId": planID, "advice": adviceText})
}
