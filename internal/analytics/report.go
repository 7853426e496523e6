package analytics

import (
	"sort"

	"nutriplan-crm/models"
)

// Report — полный аналитический отчёт по плану. Никогда не сохраняется:
// это проекция на чтение, пересчитываемая из снимка назначений.
type Report struct {
	PlanID     uint        `json:"planId"`
	PlanCode   string      `json:"planCode"`
	Summary    Summary     `json:"summary"`
	Nutrition  Nutrition   `json:"nutrition"`
	Cost       CostSection `json:"cost"`
	Variety    Variety     `json:"variety"`
	Compliance Compliance  `json:"compliance"`
	// Нарушения правил планирования; пустой список — нарушений нет.
	RuleViolations []RuleViolation `json:"ruleViolations"`
}

// Summary — общие показатели покрытия плана.
type Summary struct {
	CalendarDays     int     `json:"calendarDays"`
	AssignedDays     int     `json:"assignedDays"`
	CoveragePercent  float64 `json:"coveragePercent"`
	TotalAssignments int     `json:"totalAssignments"`
}

// Nutrition — пищевая ценность по типам приёмов пищи и по дням.
type Nutrition struct {
	ByMealType []MealTypeNutrition `json:"byMealType"`
	ByDay      []DayNutrition      `json:"byDay"`
}

type MealTypeNutrition struct {
	MealType      models.MealType `json:"mealType"`
	Assignments   int             `json:"assignments"`
	TotalCalories float64         `json:"totalCalories"`
	TotalProtein  float64         `json:"totalProtein"`
	TotalCarbs    float64         `json:"totalCarbs"`
	TotalFat      float64         `json:"totalFat"`
}

type DayNutrition struct {
	Date          string  `json:"date"`
	Assignments   int     `json:"assignments"`
	TotalCalories float64 `json:"totalCalories"`
	TotalProtein  float64 `json:"totalProtein"`
	TotalCarbs    float64 `json:"totalCarbs"`
	TotalFat      float64 `json:"totalFat"`
}

// CostSection — стоимость по типам приёмов пищи, по дням и сводка.
type CostSection struct {
	ByMealType []MealTypeCost `json:"byMealType"`
	ByDay      []DayCost      `json:"byDay"`
	Summary    CostSummary    `json:"summary"`
}

type MealTypeCost struct {
	MealType  models.MealType `json:"mealType"`
	TotalCost float64         `json:"totalCost"`
}

type DayCost struct {
	Date      string  `json:"date"`
	TotalCost float64 `json:"totalCost"`
}

type CostSummary struct {
	TotalPlanCost     float64 `json:"totalPlanCost"`
	AverageCostPerDay float64 `json:"averageCostPerDay"`
	CostPerAssignment float64 `json:"costPerAssignment"`
	// CostPerBeneficiary = TotalPlanCost / targetRecipients программы;
	// 0, если программа недоступна или получателей нет.
	CostPerBeneficiary float64 `json:"costPerBeneficiary"`
}

// Variety — разнообразие меню и ингредиентов.
type Variety struct {
	UniqueMenus         int     `json:"uniqueMenus"`
	TotalAssignments    int     `json:"totalAssignments"`
	VarietyScore        float64 `json:"varietyScore"`
	IngredientDiversity float64 `json:"ingredientDiversity"`
}

// Compliance — проверка дней на соответствие целям программы.
// Available=false с причиной, когда у программы нет целевых показателей:
// аналитика совещательная и не валит весь отчёт.
type Compliance struct {
	Available      bool            `json:"available"`
	Reason         string          `json:"reason,omitempty"`
	Days           []DayCompliance `json:"days,omitempty"`
	CheckedDays    int             `json:"checkedDays"`
	PassedDays     int             `json:"passedDays"`
	ComplianceRate float64         `json:"complianceRate"`
}

type DayCompliance struct {
	Date             string  `json:"date"`
	TotalCalories    float64 `json:"totalCalories"`
	TotalProtein     float64 `json:"totalProtein"`
	MealTypesCovered int     `json:"mealTypesCovered"`
	CaloriesOK       bool    `json:"caloriesOk"`
	ProteinOK        bool    `json:"proteinOk"`
	IsCompliant      bool    `json:"isCompliant"`
}

// RuleViolation — одно нарушение правила планирования.
type RuleViolation struct {
	Kind    models.PlanningRuleKind `json:"kind"`
	Date    string                  `json:"date,omitempty"`
	Message string                  `json:"message"`
}

// Input — снимок данных для построения отчёта.
type Input struct {
	Plan        *models.MenuPlan
	Assignments []models.MenuAssignment
	// Program может быть nil: раздел соответствия станет недоступным.
	Program *models.NutritionProgram
	// Menus — справочник меню по id для разнообразия ингредиентов.
	Menus map[uint]models.Menu
	Rules []models.PlanningRule
}

// BuildReport строит полный отчёт. Функция чистая: не мутирует вход и не
// обращается к хранилищу.
func BuildReport(in Input) *Report {
	plan := in.Plan
	assignments := in.Assignments

	report := &Report{
		PlanID:   plan.ID,
		PlanCode: plan.PlanCode,
	}

	byDay := groupByDay(assignments)
	days := sortedDayKeys(byDay)

	report.Summary = Summary{
		CalendarDays:     plan.CalendarDays(),
		AssignedDays:     len(days),
		CoveragePercent:  Coverage(plan, assignments),
		TotalAssignments: len(assignments),
	}

	report.Nutrition = buildNutrition(assignments, byDay, days)
	report.Cost = buildCost(assignments, byDay, days, in.Program)
	report.Variety = Variety{
		UniqueMenus:         UniqueMenus(assignments),
		TotalAssignments:    len(assignments),
		VarietyScore:        VarietyScore(assignments),
		IngredientDiversity: IngredientDiversity(assignments, in.Menus),
	}
	report.Compliance = buildCompliance(byDay, days, in.Program)
	report.RuleViolations = checkRules(in.Rules, byDay, days)

	return report
}

func buildNutrition(assignments []models.MenuAssignment, byDay map[string][]models.MenuAssignment, days []string) Nutrition {
	nutrition := Nutrition{
		ByMealType: []MealTypeNutrition{},
		ByDay:      []DayNutrition{},
	}

	// По типам приёмов пищи — в фиксированном дневном порядке.
	for _, mealType := range models.AllMealTypes {
		entry := MealTypeNutrition{MealType: mealType}
		for _, a := range assignments {
			if a.MealType != mealType {
				continue
			}
			entry.Assignments++
			entry.TotalCalories += a.Calories
			entry.TotalProtein += a.Protein
			entry.TotalCarbs += a.Carbs
			entry.TotalFat += a.Fat
		}
		if entry.Assignments > 0 {
			nutrition.ByMealType = append(nutrition.ByMealType, entry)
		}
	}

	for _, day := range days {
		entry := DayNutrition{Date: day}
		for _, a := range byDay[day] {
			entry.Assignments++
			entry.TotalCalories += a.Calories
			entry.TotalProtein += a.Protein
			entry.TotalCarbs += a.Carbs
			entry.TotalFat += a.Fat
		}
		nutrition.ByDay = append(nutrition.ByDay, entry)
	}

	return nutrition
}

func buildCost(assignments []models.MenuAssignment, byDay map[string][]models.MenuAssignment, days []string, program *models.NutritionProgram) CostSection {
	cost := CostSection{
		ByMealType: []MealTypeCost{},
		ByDay:      []DayCost{},
	}

	for _, mealType := range models.AllMealTypes {
		entry := MealTypeCost{MealType: mealType}
		found := false
		for _, a := range assignments {
			if a.MealType != mealType {
				continue
			}
			entry.TotalCost += a.EstimatedCost
			found = true
		}
		if found {
			cost.ByMealType = append(cost.ByMealType, entry)
		}
	}

	for _, day := range days {
		entry := DayCost{Date: day}
		for _, a := range byDay[day] {
			entry.TotalCost += a.EstimatedCost
		}
		cost.ByDay = append(cost.ByDay, entry)
	}

	total := TotalCost(assignments)
	cost.Summary = CostSummary{
		TotalPlanCost:     total,
		AverageCostPerDay: AverageCostPerDay(assignments),
		CostPerAssignment: AverageCostPerAssignment(assignments),
	}
	if program != nil && program.TargetRecipients > 0 {
		cost.Summary.CostPerBeneficiary = total / float64(program.TargetRecipients)
	}

	return cost
}

// buildCompliance проверяет каждый день с назначениями: калорийность в
// допуске (включительно) и белок не ниже цели. Дни без назначений не входят
// в знаменатель и не считаются нарушением.
func buildCompliance(byDay map[string][]models.MenuAssignment, days []string, program *models.NutritionProgram) Compliance {
	if !program.HasNutritionTargets() {
		return Compliance{
			Available: false,
			Reason:    "целевые показатели питания программы недоступны",
		}
	}

	tolerance := program.CaloriesTolerance
	if tolerance <= 0 {
		tolerance = 10
	}
	low := program.CaloriesTarget * (1 - tolerance/100)
	high := program.CaloriesTarget * (1 + tolerance/100)

	compliance := Compliance{Available: true, Days: []DayCompliance{}}
	for _, day := range days {
		entry := DayCompliance{Date: day}
		mealTypes := make(map[models.MealType]bool)
		for _, a := range byDay[day] {
			entry.TotalCalories += a.Calories
			entry.TotalProtein += a.Protein
			mealTypes[a.MealType] = true
		}
		entry.MealTypesCovered = len(mealTypes)
		entry.CaloriesOK = entry.TotalCalories >= low && entry.TotalCalories <= high
		entry.ProteinOK = entry.TotalProtein >= program.ProteinTargetGrams
		entry.IsCompliant = entry.CaloriesOK && entry.ProteinOK

		compliance.Days = append(compliance.Days, entry)
		compliance.CheckedDays++
		if entry.IsCompliant {
			compliance.PassedDays++
		}
	}

	if compliance.CheckedDays > 0 {
		compliance.ComplianceRate = float64(compliance.PassedDays) / float64(compliance.CheckedDays)
	}
	return compliance
}

func groupByDay(assignments []models.MenuAssignment) map[string][]models.MenuAssignment {
	byDay := make(map[string][]models.MenuAssignment)
	for _, a := range assignments {
		key := dayKey(a)
		byDay[key] = append(byDay[key], a)
	}
	return byDay
}

func sortedDayKeys(byDay map[string][]models.MenuAssignment) []string {
	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}
