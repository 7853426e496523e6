package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/divan/num2words"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"nutriplan-crm/internal/analytics"
)

// GetAnalyticsHandler возвращает аналитический отчёт по плану.
func (h *Handler) GetAnalyticsHandler(c *gin.Context) {
	planID, ok := parseID(c)
	if !ok {
		return
	}
	report, err := h.Facade.GetAnalytics(c.Request.Context(), planID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportAnalyticsHandler отдаёт отчёт по плану в виде Excel-файла:
// сводка, питание и стоимость по дням, проверка соответствия.
func (h *Handler) ExportAnalyticsHandler(c *gin.Context) {
	planID, ok := parseID(c)
	if !ok {
		return
	}
	report, err := h.Facade.GetAnalytics(c.Request.Context(), planID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	f := excelize.NewFile()
	writeSummarySheet(f, report)
	writeDaysSheet(f, report)
	writeComplianceSheet(f, report)
	f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("plan_analytics_%s_%s.xlsx", report.PlanCode, time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
	}
}

func writeSummarySheet(f *excelize.File, report *analytics.Report) {
	sheetName := "Сводка"
	index, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(index)

	rows := [][]interface{}{
		{"Код плана", report.PlanCode},
		{"Календарных дней", report.Summary.CalendarDays},
		{"Дней с назначениями", report.Summary.AssignedDays},
		{"Покрытие, %", report.Summary.CoveragePercent},
		{"Всего назначений", report.Summary.TotalAssignments},
		{"Уникальных меню", report.Variety.UniqueMenus},
		{"Разнообразие, %", report.Variety.VarietyScore},
		{"Разнообразие ингредиентов, %", report.Variety.IngredientDiversity},
		{"Общая стоимость плана", report.Cost.Summary.TotalPlanCost},
		{"Общая стоимость прописью", num2words.Convert(int(report.Cost.Summary.TotalPlanCost))},
		{"Средняя стоимость на день", report.Cost.Summary.AverageCostPerDay},
		{"Стоимость на получателя", report.Cost.Summary.CostPerBeneficiary},
	}
	for i, row := range rows {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", i+1), row[0])
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", i+1), row[1])
	}
}

func writeDaysSheet(f *excelize.File, report *analytics.Report) {
	sheetName := "По дням"
	f.NewSheet(sheetName)

	headers := []string{"Дата", "Назначений", "Калории", "Белки", "Углеводы", "Жиры", "Стоимость"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	costByDay := make(map[string]float64, len(report.Cost.ByDay))
	for _, day := range report.Cost.ByDay {
		costByDay[day.Date] = day.TotalCost
	}

	for i, day := range report.Nutrition.ByDay {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), day.Date)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), day.Assignments)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), day.TotalCalories)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), day.TotalProtein)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), day.TotalCarbs)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), day.TotalFat)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), costByDay[day.Date])
	}
}

func writeComplianceSheet(f *excelize.File, report *analytics.Report) {
	sheetName := "Соответствие"
	f.NewSheet(sheetName)

	if !report.Compliance.Available {
		f.SetCellValue(sheetName, "A1", "Раздел недоступен: "+report.Compliance.Reason)
		return
	}

	headers := []string{"Дата", "Калории", "Белки", "Приёмов пищи", "Калории в норме", "Белок в норме", "День соответствует"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, day := range report.Compliance.Days {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), day.Date)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), day.TotalCalories)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), day.TotalProtein)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), day.MealTypesCovered)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), boolMark(day.CaloriesOK))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), boolMark(day.ProteinOK))
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), boolMark(day.IsCompliant))
	}

	summaryRow := len(report.Compliance.Days) + 3
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "Доля соответствующих дней")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", summaryRow), report.Compliance.ComplianceRate)
}

func boolMark(ok bool) string {
	if ok {
		return "Да"
	}
	return "Нет"
}
