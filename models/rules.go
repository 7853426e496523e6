package models

import (
	"encoding/json"
	"fmt"
)

// PlanningRuleKind — вид правила планирования.
type PlanningRuleKind string

const (
	RuleMaxBudgetPerDay  PlanningRuleKind = "MAX_BUDGET_PER_DAY"
	RuleMaxRepeatPerWeek PlanningRuleKind = "MAX_REPEAT_PER_WEEK"
	RuleAllowedMealTypes PlanningRuleKind = "ALLOWED_MEAL_TYPES"
	RuleCustomExpression PlanningRuleKind = "CUSTOM_EXPRESSION"
	// RuleUnknown — правило неизвестного вида; сырой JSON сохраняем,
	// чтобы не терять данные при обновлении версий.
	RuleUnknown PlanningRuleKind = "UNKNOWN"
)

// PlanningRule — типизированное правило планирования. Вместо произвольной
// карты ключ→значение каждое известное правило несёт свои поля, неизвестные
// виды складываются в Raw.
type PlanningRule struct {
	Kind PlanningRuleKind `json:"kind"`

	// MAX_BUDGET_PER_DAY
	MaxBudgetPerDay float64 `json:"maxBudgetPerDay,omitempty"`

	// MAX_REPEAT_PER_WEEK
	MaxRepeatPerWeek int `json:"maxRepeatPerWeek,omitempty"`

	// ALLOWED_MEAL_TYPES
	AllowedMealTypes []MealType `json:"allowedMealTypes,omitempty"`

	// CUSTOM_EXPRESSION: формула govaluate над дневными агрегатами
	// (totalCost, totalCalories, totalProtein, mealCount).
	Expression string `json:"expression,omitempty"`

	Raw json.RawMessage `json:"raw,omitempty"`
}

// ParsePlanningRules разбирает JSON-массив правил из колонки planning_rules.
// Пустая строка — валидный случай «правил нет».
func ParsePlanningRules(raw string) ([]PlanningRule, error) {
	if raw == "" {
		return nil, nil
	}

	var rawRules []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &rawRules); err != nil {
		return nil, fmt.Errorf("не удалось разобрать planning_rules: %w", err)
	}

	rules := make([]PlanningRule, 0, len(rawRules))
	for _, entry := range rawRules {
		var rule PlanningRule
		if err := json.Unmarshal(entry, &rule); err != nil {
			return nil, fmt.Errorf("не удалось разобрать правило планирования: %w", err)
		}

		switch rule.Kind {
		case RuleMaxBudgetPerDay, RuleMaxRepeatPerWeek, RuleAllowedMealTypes, RuleCustomExpression:
			// известный вид, поля уже заполнены
		default:
			rule = PlanningRule{Kind: RuleUnknown, Raw: entry}
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

// EncodePlanningRules сериализует правила обратно в JSON для хранения.
// Неизвестные правила пишутся в исходном виде.
func EncodePlanningRules(rules []PlanningRule) (string, error) {
	if len(rules) == 0 {
		return "", nil
	}

	encoded := make([]json.RawMessage, 0, len(rules))
	for _, rule := range rules {
		if rule.Kind == RuleUnknown && len(rule.Raw) > 0 {
			encoded = append(encoded, rule.Raw)
			continue
		}
		data, err := json.Marshal(rule)
		if err != nil {
			return "", err
		}
		encoded = append(encoded, data)
	}

	out, err := json.Marshal(encoded)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
