package workflow

import (
	"context"
	"log/slog"

	"nutriplan-crm/internal/analytics"
	"nutriplan-crm/internal/store"
	"nutriplan-crm/models"
)

// GetAnalytics возвращает отчёт по плану: из кэша, если набор назначений не
// менялся, иначе пересчитывает. Попутно обновляет оценки качества плана —
// это единственная запись, и она не влияет на сам отчёт.
func (f *Facade) GetAnalytics(ctx context.Context, planID uint) (*analytics.Report, error) {
	if f.cache != nil {
		if report, ok := f.cache.GetReport(ctx, planID); ok {
			return report, nil
		}
	}

	plan, err := f.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	assignments, err := f.store.ListAssignments(ctx, planID, store.AssignmentFilter{})
	if err != nil {
		return nil, err
	}

	// Программа может быть недоступна — отчёт деградирует, а не падает.
	program, err := f.store.GetProgram(ctx, plan.ProgramID)
	if err != nil {
		slog.Warn("Программа плана недоступна, раздел соответствия будет пропущен",
			"plan_id", planID, "program_id", plan.ProgramID, "error", err)
		program = nil
	}

	menus := make(map[uint]models.Menu)
	for _, a := range assignments {
		if _, ok := menus[a.MenuID]; ok {
			continue
		}
		menu, err := f.store.GetMenu(ctx, a.MenuID)
		if err != nil {
			slog.Warn("Меню назначения недоступно", "menu_id", a.MenuID, "error", err)
			continue
		}
		menus[menu.ID] = *menu
	}

	rules, err := models.ParsePlanningRules(plan.PlanningRules)
	if err != nil {
		slog.Warn("Правила планирования не разобраны, проверка пропущена",
			"plan_id", planID, "error", err)
		rules = nil
	}

	report := analytics.BuildReport(analytics.Input{
		Plan:        plan,
		Assignments: assignments,
		Program:     program,
		Menus:       menus,
		Rules:       rules,
	})

	f.writeBackScores(ctx, plan, report, rules)

	if f.cache != nil {
		f.cache.SetReport(ctx, planID, report)
	}
	return report, nil
}

// writeBackScores сохраняет оценки качества в план. Ошибка здесь не портит
// запрос аналитики, только пишется в лог.
func (f *Facade) writeBackScores(ctx context.Context, plan *models.MenuPlan, report *analytics.Report, rules []models.PlanningRule) {
	variety := report.Variety.VarietyScore
	plan.VarietyScore = &variety

	if report.Compliance.Available {
		nutrition := report.Compliance.ComplianceRate * 100
		plan.NutritionScore = &nutrition
	}

	if efficiency, ok := costEfficiency(report, rules); ok {
		plan.CostEfficiency = &efficiency
	}

	if err := f.store.SavePlan(ctx, plan); err != nil {
		slog.Error("Не удалось сохранить оценки качества плана", "plan_id", plan.ID, "error", err)
	}
}

// costEfficiency — доля дней без нарушений бюджетного правила. Без правила
// MAX_BUDGET_PER_DAY в плане оценка не считается.
func costEfficiency(report *analytics.Report, rules []models.PlanningRule) (float64, bool) {
	if report.Summary.AssignedDays == 0 {
		return 0, false
	}
	budgetRuleSet := false
	for _, rule := range rules {
		if rule.Kind == models.RuleMaxBudgetPerDay {
			budgetRuleSet = true
			break
		}
	}
	if !budgetRuleSet {
		return 0, false
	}

	violationDays := make(map[string]bool)
	for _, v := range report.RuleViolations {
		if v.Kind == models.RuleMaxBudgetPerDay {
			violationDays[v.Date] = true
		}
	}
	days := float64(report.Summary.AssignedDays)
	return (days - float64(len(violationDays))) / days * 100, true
}
