package models

import (
	"strings"
	"testing"
)

func TestParsePlanningRulesKnownKinds(t *testing.T) {
	raw := `[
		{"kind":"MAX_BUDGET_PER_DAY","maxBudgetPerDay":500000},
		{"kind":"MAX_REPEAT_PER_WEEK","maxRepeatPerWeek":2},
		{"kind":"ALLOWED_MEAL_TYPES","allowedMealTypes":["BREAKFAST","LUNCH"]},
		{"kind":"CUSTOM_EXPRESSION","expression":"totalCost <= 100000"}
	]`

	rules, err := ParsePlanningRules(raw)
	if err != nil {
		t.Fatalf("ParsePlanningRules failed: %v", err)
	}
	if len(rules) != 4 {
		t.Fatalf("expected 4 rules, got %d", len(rules))
	}

	if rules[0].Kind != RuleMaxBudgetPerDay || rules[0].MaxBudgetPerDay != 500000 {
		t.Errorf("unexpected budget rule: %+v", rules[0])
	}
	if rules[1].Kind != RuleMaxRepeatPerWeek || rules[1].MaxRepeatPerWeek != 2 {
		t.Errorf("unexpected repeat rule: %+v", rules[1])
	}
	if rules[2].Kind != RuleAllowedMealTypes || len(rules[2].AllowedMealTypes) != 2 {
		t.Errorf("unexpected meal types rule: %+v", rules[2])
	}
	if rules[3].Kind != RuleCustomExpression || rules[3].Expression != "totalCost <= 100000" {
		t.Errorf("unexpected expression rule: %+v", rules[3])
	}
}

func TestParsePlanningRulesUnknownKindPreserved(t *testing.T) {
	raw := `[{"kind":"MIN_FISH_DAYS","minFishDays":1}]`

	rules, err := ParsePlanningRules(raw)
	if err != nil {
		t.Fatalf("ParsePlanningRules failed: %v", err)
	}
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].Kind != RuleUnknown {
		t.Errorf("expected UNKNOWN kind, got %s", rules[0].Kind)
	}
	if !strings.Contains(string(rules[0].Raw), "MIN_FISH_DAYS") {
		t.Errorf("raw payload lost: %s", rules[0].Raw)
	}

	// Сериализация не должна терять неизвестное правило.
	encoded, err := EncodePlanningRules(rules)
	if err != nil {
		t.Fatalf("EncodePlanningRules failed: %v", err)
	}
	if !strings.Contains(encoded, "MIN_FISH_DAYS") {
		t.Errorf("encoded rules lost unknown rule: %s", encoded)
	}
}

func TestParsePlanningRulesEmpty(t *testing.T) {
	rules, err := ParsePlanningRules("")
	if err != nil {
		t.Fatalf("ParsePlanningRules failed: %v", err)
	}
	if rules != nil {
		t.Errorf("expected nil rules for empty input, got %+v", rules)
	}
}

func TestParsePlanningRulesInvalidJSON(t *testing.T) {
	if _, err := ParsePlanningRules("{not json"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
