package models

import (
	"time"

	"gorm.io/gorm"
)

// MenuPlan описывает план питания на период для одной программы.
// Статус и поля аудита меняются только через машину состояний,
// редактирование остальных полей разрешено только в статусе DRAFT.
type MenuPlan struct {
	ID        uint           `gorm:"primaryKey"             json:"ID"`
	CreatedAt time.Time      `                              json:"CreatedAt"`
	UpdatedAt time.Time      `                              json:"UpdatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index"                  json:"DeletedAt"`

	PlanCode    string    `gorm:"column:plan_code;uniqueIndex" json:"planCode"`
	Name        string    `gorm:"column:name;not null"         json:"name"`
	Description string    `gorm:"column:description"           json:"description"`
	StartDate   time.Time `gorm:"column:start_date;not null"   json:"startDate"`
	EndDate     time.Time `gorm:"column:end_date;not null"     json:"endDate"`

	Status     PlanStatus `gorm:"column:status;size:32;default:DRAFT;index" json:"status"`
	IsDraft    bool       `gorm:"column:is_draft;default:true"              json:"isDraft"`
	IsActive   bool       `gorm:"column:is_active;default:false"            json:"isActive"`
	IsArchived bool       `gorm:"column:is_archived;default:false"          json:"isArchived"`

	// Связи
	ProgramID uint              `gorm:"column:program_id;index" json:"programId"`
	Program   *NutritionProgram `gorm:"foreignKey:ProgramID"    json:"program,omitempty"`

	CreatedByID uint `gorm:"column:created_by_id" json:"createdById"`

	// Аудит workflow: кто и когда выполнил переход.
	SubmittedByID   *uint      `gorm:"column:submitted_by_id" json:"submittedById,omitempty"`
	SubmittedAt     *time.Time `gorm:"column:submitted_at"    json:"submittedAt,omitempty"`
	ApprovedByID    *uint      `gorm:"column:approved_by_id"  json:"approvedById,omitempty"`
	ApprovedAt      *time.Time `gorm:"column:approved_at"     json:"approvedAt,omitempty"`
	PublishedByID   *uint      `gorm:"column:published_by_id" json:"publishedById,omitempty"`
	PublishedAt     *time.Time `gorm:"column:published_at"    json:"publishedAt,omitempty"`
	RejectedByID    *uint      `gorm:"column:rejected_by_id"  json:"rejectedById,omitempty"`
	RejectedAt      *time.Time `gorm:"column:rejected_at"     json:"rejectedAt,omitempty"`
	RejectionReason string     `gorm:"column:rejection_reason" json:"rejectionReason,omitempty"`

	// Кэш агрегатов аналитики для списков; пересчитывается фасадом
	// после каждой мутации назначений.
	TotalMenus         int     `gorm:"column:total_menus"          json:"totalMenus"`
	TotalEstimatedCost float64 `gorm:"column:total_estimated_cost" json:"totalEstimatedCost"`
	AverageCostPerDay  float64 `gorm:"column:average_cost_per_day" json:"averageCostPerDay"`

	// Оценки качества; nil, пока аналитика ни разу не считалась.
	NutritionScore *float64 `gorm:"column:nutrition_score" json:"nutritionScore,omitempty"`
	VarietyScore   *float64 `gorm:"column:variety_score"   json:"varietyScore,omitempty"`
	CostEfficiency *float64 `gorm:"column:cost_efficiency" json:"costEfficiency,omitempty"`

	// Правила планирования храним как JSON-массив типизированных правил,
	// см. ParsePlanningRules.
	PlanningRules string `gorm:"column:planning_rules;type:json" json:"planningRules,omitempty"`
}

func (MenuPlan) TableName() string { return "menu_plans" }

// ContainsDate проверяет попадание даты в период плана включительно.
// Сравнение идёт по календарным дням, время суток игнорируется.
func (p *MenuPlan) ContainsDate(d time.Time) bool {
	day := DateOnly(d)
	return !day.Before(DateOnly(p.StartDate)) && !day.After(DateOnly(p.EndDate))
}

// CalendarDays возвращает число календарных дней в периоде плана включительно.
func (p *MenuPlan) CalendarDays() int {
	start := DateOnly(p.StartDate)
	end := DateOnly(p.EndDate)
	return int(end.Sub(start).Hours()/24) + 1
}

// DateOnly обрезает время до полуночи UTC: слоты назначений сравниваются
// по календарному дню.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
