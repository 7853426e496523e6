package analytics

import (
	"math"
	"reflect"
	"testing"
	"time"

	"nutriplan-crm/models"
)

func weekPlan() *models.MenuPlan {
	return &models.MenuPlan{
		ID:        1,
		PlanCode:  "PLN-ANALYTICS",
		StartDate: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 11, 7, 0, 0, 0, 0, time.UTC),
		Status:    models.PlanStatusDraft,
	}
}

func assignment(day int, mealType models.MealType, menuID uint, portions int, unitCost, calories, protein float64) models.MenuAssignment {
	return models.MenuAssignment{
		ID:              uint(day)*10 + uint(mealType.OrderIndex()),
		PlanID:          1,
		MenuID:          menuID,
		AssignedDate:    time.Date(2025, 11, day, 0, 0, 0, 0, time.UTC),
		MealType:        mealType,
		PlannedPortions: portions,
		UnitCost:        unitCost,
		EstimatedCost:   unitCost * float64(portions),
		Calories:        calories,
		Protein:         protein,
		Status:          models.AssignmentPlanned,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// Недельный план с одним обедом: 100 порций по 10000 дают стоимость
// плана 1 000 000, одно уникальное меню и разнообразие 100.
func TestSingleLunchScenario(t *testing.T) {
	plan := weekPlan()
	assignments := []models.MenuAssignment{
		assignment(3, models.MealLunch, 42, 100, 10000, 650, 30),
	}

	report := BuildReport(Input{Plan: plan, Assignments: assignments})

	if report.Cost.Summary.TotalPlanCost != 1000000 {
		t.Errorf("expected totalPlanCost 1000000, got %v", report.Cost.Summary.TotalPlanCost)
	}
	if report.Cost.Summary.AverageCostPerDay != 1000000 {
		t.Errorf("expected averageCostPerDay 1000000 (one assigned day), got %v", report.Cost.Summary.AverageCostPerDay)
	}
	if report.Cost.Summary.CostPerAssignment != 1000000 {
		t.Errorf("expected costPerAssignment 1000000, got %v", report.Cost.Summary.CostPerAssignment)
	}
	if report.Variety.UniqueMenus != 1 {
		t.Errorf("expected 1 unique menu, got %d", report.Variety.UniqueMenus)
	}
	if report.Variety.VarietyScore != 100 {
		t.Errorf("expected varietyScore 100, got %v", report.Variety.VarietyScore)
	}
	if report.Summary.CalendarDays != 7 || report.Summary.AssignedDays != 1 {
		t.Errorf("unexpected summary: %+v", report.Summary)
	}
	if !almostEqual(report.Summary.CoveragePercent, 100.0/7) {
		t.Errorf("expected coverage 1/7, got %v", report.Summary.CoveragePercent)
	}

	if len(report.Cost.ByDay) != 1 || report.Cost.ByDay[0].Date != "2025-11-03" {
		t.Errorf("unexpected cost byDay: %+v", report.Cost.ByDay)
	}
	if len(report.Nutrition.ByMealType) != 1 || report.Nutrition.ByMealType[0].MealType != models.MealLunch {
		t.Errorf("unexpected nutrition byMealType: %+v", report.Nutrition.ByMealType)
	}
}

// Отчёт детерминирован: два построения на одном снимке совпадают целиком.
func TestReportIdempotent(t *testing.T) {
	plan := weekPlan()
	plan.PlanningRules = "" // правила идут отдельным входом
	assignments := []models.MenuAssignment{
		assignment(1, models.MealBreakfast, 1, 50, 4000, 350, 12),
		assignment(1, models.MealLunch, 2, 50, 10000, 650, 30),
		assignment(2, models.MealLunch, 2, 50, 10000, 650, 30),
		assignment(4, models.MealDinner, 3, 50, 8000, 550, 25),
	}
	program := &models.NutritionProgram{
		CaloriesTarget:     1000,
		CaloriesTolerance:  10,
		ProteinTargetGrams: 40,
		TargetRecipients:   50,
	}
	rules := []models.PlanningRule{
		{Kind: models.RuleMaxBudgetPerDay, MaxBudgetPerDay: 600000},
		{Kind: models.RuleMaxRepeatPerWeek, MaxRepeatPerWeek: 1},
	}

	in := Input{Plan: plan, Assignments: assignments, Program: program, Rules: rules}
	first := BuildReport(in)
	second := BuildReport(in)

	if !reflect.DeepEqual(first, second) {
		t.Error("two builds over the same snapshot differ")
	}
}

func TestComplianceBand(t *testing.T) {
	plan := weekPlan()
	program := &models.NutritionProgram{
		CaloriesTarget:     1000,
		CaloriesTolerance:  10,
		ProteinTargetGrams: 40,
	}

	assignments := []models.MenuAssignment{
		// День 1: 1000 ккал, 45 г белка — соответствует.
		assignment(1, models.MealBreakfast, 1, 10, 100, 400, 20),
		assignment(1, models.MealLunch, 2, 10, 100, 600, 25),
		// День 2: 900 ккал — нижняя граница допуска включительно.
		assignment(2, models.MealLunch, 2, 10, 100, 900, 45),
		// День 3: 1101 ккал — за верхней границей.
		assignment(3, models.MealLunch, 2, 10, 100, 1101, 45),
		// День 4: калории в допуске, белка не хватает.
		assignment(4, models.MealLunch, 2, 10, 100, 1000, 30),
	}

	report := BuildReport(Input{Plan: plan, Assignments: assignments, Program: program})

	compliance := report.Compliance
	if !compliance.Available {
		t.Fatalf("compliance must be available: %+v", compliance)
	}
	// Дни без назначений (5, 6, 7) не входят в знаменатель.
	if compliance.CheckedDays != 4 {
		t.Errorf("expected 4 checked days, got %d", compliance.CheckedDays)
	}
	if compliance.PassedDays != 2 {
		t.Errorf("expected 2 passed days, got %d", compliance.PassedDays)
	}
	if !almostEqual(compliance.ComplianceRate, 0.5) {
		t.Errorf("expected compliance rate 0.5, got %v", compliance.ComplianceRate)
	}

	byDate := make(map[string]DayCompliance)
	for _, day := range compliance.Days {
		byDate[day.Date] = day
	}
	if !byDate["2025-11-02"].IsCompliant {
		t.Error("lower tolerance boundary must be inclusive")
	}
	if byDate["2025-11-03"].CaloriesOK {
		t.Error("calories above the band must fail")
	}
	day4 := byDate["2025-11-04"]
	if !day4.CaloriesOK || day4.ProteinOK || day4.IsCompliant {
		t.Errorf("day 4 must fail on protein only: %+v", day4)
	}
}

// Без целевых показателей программы раздел соответствия деградирует, а не
// валит отчёт.
func TestComplianceUnavailableWithoutProgram(t *testing.T) {
	plan := weekPlan()
	assignments := []models.MenuAssignment{
		assignment(3, models.MealLunch, 42, 100, 10000, 650, 30),
	}

	for _, program := range []*models.NutritionProgram{
		nil,
		{CaloriesTarget: 0, ProteinTargetGrams: 0},
	} {
		report := BuildReport(Input{Plan: plan, Assignments: assignments, Program: program})
		if report.Compliance.Available {
			t.Errorf("compliance must be unavailable for program %+v", program)
		}
		if report.Compliance.Reason == "" {
			t.Error("degraded compliance must carry a reason")
		}
		// Остальные разделы считаются как обычно.
		if report.Cost.Summary.TotalPlanCost != 1000000 {
			t.Errorf("cost section must not degrade: %v", report.Cost.Summary.TotalPlanCost)
		}
	}
}

func TestEmptyPlanReport(t *testing.T) {
	report := BuildReport(Input{Plan: weekPlan()})

	if report.Summary.TotalAssignments != 0 || report.Summary.CoveragePercent != 0 {
		t.Errorf("unexpected summary for empty plan: %+v", report.Summary)
	}
	if report.Variety.VarietyScore != 0 {
		t.Errorf("variety of empty plan must be 0, got %v", report.Variety.VarietyScore)
	}
	if report.Cost.Summary.AverageCostPerDay != 0 {
		t.Errorf("averageCostPerDay of empty plan must be 0, got %v", report.Cost.Summary.AverageCostPerDay)
	}
	if report.RuleViolations == nil || len(report.RuleViolations) != 0 {
		t.Errorf("expected empty violations list, got %+v", report.RuleViolations)
	}
}

func TestCostPerBeneficiary(t *testing.T) {
	plan := weekPlan()
	assignments := []models.MenuAssignment{
		assignment(3, models.MealLunch, 42, 100, 10000, 650, 30),
	}
	program := &models.NutritionProgram{TargetRecipients: 100}

	report := BuildReport(Input{Plan: plan, Assignments: assignments, Program: program})
	if report.Cost.Summary.CostPerBeneficiary != 10000 {
		t.Errorf("expected costPerBeneficiary 10000, got %v", report.Cost.Summary.CostPerBeneficiary)
	}
}

func TestMaxBudgetRule(t *testing.T) {
	plan := weekPlan()
	assignments := []models.MenuAssignment{
		assignment(1, models.MealLunch, 1, 10, 100, 650, 30),  // 1000 в день
		assignment(2, models.MealLunch, 1, 30, 100, 650, 30),  // 3000 в день
		assignment(2, models.MealDinner, 2, 20, 100, 550, 25), // +2000, итого 5000
	}
	rules := []models.PlanningRule{
		{Kind: models.RuleMaxBudgetPerDay, MaxBudgetPerDay: 2000},
	}

	report := BuildReport(Input{Plan: plan, Assignments: assignments, Rules: rules})

	if len(report.RuleViolations) != 1 {
		t.Fatalf("expected 1 violation, got %+v", report.RuleViolations)
	}
	v := report.RuleViolations[0]
	if v.Kind != models.RuleMaxBudgetPerDay || v.Date != "2025-11-02" {
		t.Errorf("unexpected violation: %+v", v)
	}
}

func TestMaxRepeatPerWeekRule(t *testing.T) {
	plan := weekPlan()
	// Меню 7 три раза за одну ISO-неделю.
	assignments := []models.MenuAssignment{
		assignment(3, models.MealLunch, 7, 10, 100, 650, 30),
		assignment(4, models.MealLunch, 7, 10, 100, 650, 30),
		assignment(5, models.MealLunch, 7, 10, 100, 650, 30),
		assignment(6, models.MealLunch, 8, 10, 100, 650, 30),
	}
	rules := []models.PlanningRule{
		{Kind: models.RuleMaxRepeatPerWeek, MaxRepeatPerWeek: 2},
	}

	report := BuildReport(Input{Plan: plan, Assignments: assignments, Rules: rules})

	if len(report.RuleViolations) != 1 {
		t.Fatalf("expected 1 violation, got %+v", report.RuleViolations)
	}
	if report.RuleViolations[0].Kind != models.RuleMaxRepeatPerWeek {
		t.Errorf("unexpected violation: %+v", report.RuleViolations[0])
	}
}

func TestAllowedMealTypesRule(t *testing.T) {
	plan := weekPlan()
	assignments := []models.MenuAssignment{
		assignment(1, models.MealBreakfast, 1, 10, 100, 350, 12),
		assignment(1, models.MealAfternoonSnack, 2, 10, 100, 150, 5),
	}
	rules := []models.PlanningRule{
		{Kind: models.RuleAllowedMealTypes, AllowedMealTypes: []models.MealType{models.MealBreakfast, models.MealLunch}},
	}

	report := BuildReport(Input{Plan: plan, Assignments: assignments, Rules: rules})

	if len(report.RuleViolations) != 1 {
		t.Fatalf("expected 1 violation, got %+v", report.RuleViolations)
	}
	if report.RuleViolations[0].Date != "2025-11-01" {
		t.Errorf("unexpected violation: %+v", report.RuleViolations[0])
	}
}

func TestCustomExpressionRule(t *testing.T) {
	plan := weekPlan()
	assignments := []models.MenuAssignment{
		assignment(1, models.MealLunch, 1, 10, 100, 650, 30), // totalCost 1000
		assignment(2, models.MealLunch, 1, 50, 100, 650, 30), // totalCost 5000
	}

	rules := []models.PlanningRule{
		{Kind: models.RuleCustomExpression, Expression: "totalCost <= 2000"},
	}
	report := BuildReport(Input{Plan: plan, Assignments: assignments, Rules: rules})
	if len(report.RuleViolations) != 1 || report.RuleViolations[0].Date != "2025-11-02" {
		t.Fatalf("expected one violation on day 2, got %+v", report.RuleViolations)
	}

	// Синтаксически неверная формула — нарушение, а не ошибка отчёта.
	broken := []models.PlanningRule{
		{Kind: models.RuleCustomExpression, Expression: "totalCost <= <="},
	}
	report = BuildReport(Input{Plan: plan, Assignments: assignments, Rules: broken})
	if len(report.RuleViolations) != 1 || report.RuleViolations[0].Kind != models.RuleCustomExpression {
		t.Fatalf("broken expression must surface as a violation, got %+v", report.RuleViolations)
	}

	// Неизвестное правило молча пропускается.
	unknown := []models.PlanningRule{{Kind: models.RuleUnknown}}
	report = BuildReport(Input{Plan: plan, Assignments: assignments, Rules: unknown})
	if len(report.RuleViolations) != 0 {
		t.Errorf("unknown rule must not produce violations: %+v", report.RuleViolations)
	}
}

func TestIngredientDiversity(t *testing.T) {
	menus := map[uint]models.Menu{
		1: {Ingredients: []models.MenuIngredient{
			{InventoryItemID: 10}, {InventoryItemID: 11},
		}},
		2: {Ingredients: []models.MenuIngredient{
			{InventoryItemID: 10}, {InventoryItemID: 12},
		}},
	}
	assignments := []models.MenuAssignment{
		assignment(1, models.MealLunch, 1, 10, 100, 650, 30),
		assignment(2, models.MealLunch, 2, 10, 100, 650, 30),
	}

	// 3 различных ингредиента из 4 позиций.
	got := IngredientDiversity(assignments, menus)
	if !almostEqual(got, 75) {
		t.Errorf("expected diversity 75, got %v", got)
	}

	if IngredientDiversity(assignments, nil) != 0 {
		t.Error("missing menu catalogue must give 0 diversity")
	}
}
