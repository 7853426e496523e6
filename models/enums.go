package models

// PlanStatus описывает состояние жизненного цикла плана питания.
type PlanStatus string

const (
	PlanStatusDraft         PlanStatus = "DRAFT"
	PlanStatusPendingReview PlanStatus = "PENDING_REVIEW"
	PlanStatusApproved      PlanStatus = "APPROVED"
	PlanStatusPublished     PlanStatus = "PUBLISHED"
	PlanStatusActive        PlanStatus = "ACTIVE"
	PlanStatusCompleted     PlanStatus = "COMPLETED"
	PlanStatusArchived      PlanStatus = "ARCHIVED"
	PlanStatusCancelled     PlanStatus = "CANCELLED"
)

// IsTerminal возвращает true для статусов, после которых план менять нельзя.
func (s PlanStatus) IsTerminal() bool {
	switch s {
	case PlanStatusCompleted, PlanStatusArchived, PlanStatusCancelled:
		return true
	}
	return false
}

// MealType описывает тип приёма пищи (слот в календаре плана).
type MealType string

const (
	MealBreakfast      MealType = "BREAKFAST"
	MealMorningSnack   MealType = "MORNING_SNACK"
	MealLunch          MealType = "LUNCH"
	MealAfternoonSnack MealType = "AFTERNOON_SNACK"
	MealDinner         MealType = "DINNER"
)

// AllMealTypes — все типы приёмов пищи в порядке следования в течение дня.
var AllMealTypes = []MealType{
	MealBreakfast,
	MealMorningSnack,
	MealLunch,
	MealAfternoonSnack,
	MealDinner,
}

var mealTypeOrder = map[MealType]int{
	MealBreakfast:      0,
	MealMorningSnack:   1,
	MealLunch:          2,
	MealAfternoonSnack: 3,
	MealDinner:         4,
}

// OrderIndex возвращает порядковый номер типа приёма пищи в течение дня.
// Неизвестные типы уходят в конец сортировки.
func (m MealType) OrderIndex() int {
	if idx, ok := mealTypeOrder[m]; ok {
		return idx
	}
	return len(mealTypeOrder)
}

// Valid проверяет, что тип приёма пищи входит в известный набор.
func (m MealType) Valid() bool {
	_, ok := mealTypeOrder[m]
	return ok
}

// AssignmentStatus — локальный статус назначения (прогресс производства),
// не зависящий от статуса самого плана.
type AssignmentStatus string

const (
	AssignmentPlanned     AssignmentStatus = "PLANNED"
	AssignmentConfirmed   AssignmentStatus = "CONFIRMED"
	AssignmentProduced    AssignmentStatus = "PRODUCED"
	AssignmentDistributed AssignmentStatus = "DISTRIBUTED"
	AssignmentCompleted   AssignmentStatus = "COMPLETED"
)

// ActorRole — закрытый набор ролей, от имени которых выполняются операции.
// Роль приходит из middleware аутентификации одной строкой.
type ActorRole string

const (
	RoleAdmin        ActorRole = "ADMIN"
	RolePlanner      ActorRole = "PLANNER"
	RoleNutritionist ActorRole = "NUTRITIONIST"
	RoleApprover     ActorRole = "APPROVER"
	RoleViewer       ActorRole = "VIEWER"
)

// CreatorRoles — роли, которым разрешено создавать и наполнять планы.
var CreatorRoles = []ActorRole{RoleAdmin, RolePlanner, RoleNutritionist}

// ApproverRoles — роли, которым разрешено согласовывать и публиковать планы.
var ApproverRoles = []ActorRole{RoleAdmin, RoleApprover}

// IsCreator сообщает, относится ли роль к создателям планов.
func (r ActorRole) IsCreator() bool { return roleIn(r, CreatorRoles) }

// IsApprover сообщает, относится ли роль к согласующим.
func (r ActorRole) IsApprover() bool { return roleIn(r, ApproverRoles) }

func roleIn(r ActorRole, set []ActorRole) bool {
	for _, candidate := range set {
		if candidate == r {
			return true
		}
	}
	return false
}
