package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/Knetic/govaluate"

	"nutriplan-crm/models"
)

// checkRules прогоняет правила планирования по дневным агрегатам.
// Некорректное правило само становится нарушением, а не ошибкой отчёта.
func checkRules(rules []models.PlanningRule, byDay map[string][]models.MenuAssignment, days []string) []RuleViolation {
	violations := []RuleViolation{}

	for _, rule := range rules {
		switch rule.Kind {
		case models.RuleMaxBudgetPerDay:
			violations = append(violations, checkMaxBudget(rule, byDay, days)...)
		case models.RuleMaxRepeatPerWeek:
			violations = append(violations, checkMaxRepeat(rule, byDay, days)...)
		case models.RuleAllowedMealTypes:
			violations = append(violations, checkAllowedMealTypes(rule, byDay, days)...)
		case models.RuleCustomExpression:
			violations = append(violations, checkExpression(rule, byDay, days)...)
		case models.RuleUnknown:
			// Неизвестные правила не проверяются, но и не считаются нарушением.
		}
	}

	return violations
}

func checkMaxBudget(rule models.PlanningRule, byDay map[string][]models.MenuAssignment, days []string) []RuleViolation {
	var violations []RuleViolation
	for _, day := range days {
		total := 0.0
		for _, a := range byDay[day] {
			total += a.EstimatedCost
		}
		if total > rule.MaxBudgetPerDay {
			violations = append(violations, RuleViolation{
				Kind:    rule.Kind,
				Date:    day,
				Message: fmt.Sprintf("стоимость дня %.2f превышает лимит %.2f", total, rule.MaxBudgetPerDay),
			})
		}
	}
	return violations
}

// checkMaxRepeat считает повторы одного меню в пределах ISO-недели.
func checkMaxRepeat(rule models.PlanningRule, byDay map[string][]models.MenuAssignment, days []string) []RuleViolation {
	if rule.MaxRepeatPerWeek <= 0 {
		return nil
	}

	type weekMenu struct {
		year int
		week int
		menu uint
	}
	counts := make(map[weekMenu]int)
	for _, day := range days {
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		year, week := date.ISOWeek()
		for _, a := range byDay[day] {
			counts[weekMenu{year: year, week: week, menu: a.MenuID}]++
		}
	}

	var violations []RuleViolation
	for key, count := range counts {
		if count > rule.MaxRepeatPerWeek {
			violations = append(violations, RuleViolation{
				Kind: rule.Kind,
				Message: fmt.Sprintf("меню %d назначено %d раз за неделю %d/%d при лимите %d",
					key.menu, count, key.week, key.year, rule.MaxRepeatPerWeek),
			})
		}
	}
	sortViolations(violations)
	return violations
}

func checkAllowedMealTypes(rule models.PlanningRule, byDay map[string][]models.MenuAssignment, days []string) []RuleViolation {
	allowed := make(map[models.MealType]bool, len(rule.AllowedMealTypes))
	for _, mealType := range rule.AllowedMealTypes {
		allowed[mealType] = true
	}

	var violations []RuleViolation
	for _, day := range days {
		for _, a := range byDay[day] {
			if !allowed[a.MealType] {
				violations = append(violations, RuleViolation{
					Kind:    rule.Kind,
					Date:    day,
					Message: fmt.Sprintf("приём пищи %s не входит в разрешённые для плана", a.MealType),
				})
			}
		}
	}
	return violations
}

// checkExpression вычисляет формулу govaluate над агрегатами дня.
// Формула должна вернуть true для соответствующего правилам дня.
func checkExpression(rule models.PlanningRule, byDay map[string][]models.MenuAssignment, days []string) []RuleViolation {
	expression, err := govaluate.NewEvaluableExpression(rule.Expression)
	if err != nil {
		return []RuleViolation{{
			Kind:    rule.Kind,
			Message: fmt.Sprintf("ошибка в формуле %q: %v", rule.Expression, err),
		}}
	}

	var violations []RuleViolation
	for _, day := range days {
		parameters := make(map[string]interface{})
		totalCost, totalCalories, totalProtein := 0.0, 0.0, 0.0
		for _, a := range byDay[day] {
			totalCost += a.EstimatedCost
			totalCalories += a.Calories
			totalProtein += a.Protein
		}
		parameters["totalCost"] = totalCost
		parameters["totalCalories"] = totalCalories
		parameters["totalProtein"] = totalProtein
		parameters["mealCount"] = float64(len(byDay[day]))

		result, err := expression.Evaluate(parameters)
		if err != nil {
			violations = append(violations, RuleViolation{
				Kind:    rule.Kind,
				Date:    day,
				Message: fmt.Sprintf("не удалось вычислить формулу: %v", err),
			})
			continue
		}
		ok, isBool := result.(bool)
		if !isBool {
			violations = append(violations, RuleViolation{
				Kind:    rule.Kind,
				Date:    day,
				Message: "результат формулы не является логическим значением",
			})
			continue
		}
		if !ok {
			violations = append(violations, RuleViolation{
				Kind:    rule.Kind,
				Date:    day,
				Message: fmt.Sprintf("день не проходит правило %q", rule.Expression),
			})
		}
	}
	return violations
}

// sortViolations нужен детерминизму отчёта: counts — карта.
func sortViolations(violations []RuleViolation) {
	sort.Slice(violations, func(i, j int) bool {
		return violations[i].Message < violations[j].Message
	})
}
