// Package lifecycle реализует машину состояний плана питания.
// Таблица переходов — данные: каждый переход объявляет исходные статусы,
// допустимые роли и побочные эффекты аудита. Любое несовпадение исходного
// статуса означает устаревшее состояние у клиента и отклоняется без мутаций.
package lifecycle

import (
	"strings"
	"time"
	"unicode/utf8"

	"nutriplan-crm/models"
)

// Action — намерение перехода, приходит от фасада workflow.
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionPublish  Action = "publish"
	ActionArchive  Action = "archive"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

// MinRejectionReasonLen — минимальная длина причины отклонения.
const MinRejectionReasonLen = 10

// Request описывает один запрошенный переход.
type Request struct {
	Action  Action
	Role    models.ActorRole
	ActorID uint
	// Reason обязателен для reject (не короче MinRejectionReasonLen).
	Reason string
	// Now — момент перехода; publish сравнивает его с периодом плана.
	Now time.Time
}

// transition — строка таблицы переходов.
type transition struct {
	action Action
	from   []models.PlanStatus // пустой список = любой нетерминальный статус
	roles  []models.ActorRole
}

// transitions — полная таблица переходов машины состояний.
var transitions = []transition{
	{action: ActionSubmit, from: []models.PlanStatus{models.PlanStatusDraft}, roles: models.CreatorRoles},
	{action: ActionApprove, from: []models.PlanStatus{models.PlanStatusPendingReview}, roles: models.ApproverRoles},
	{action: ActionReject, from: []models.PlanStatus{models.PlanStatusPendingReview}, roles: models.ApproverRoles},
	{action: ActionPublish, from: []models.PlanStatus{models.PlanStatusApproved}, roles: models.ApproverRoles},
	{action: ActionArchive, from: []models.PlanStatus{models.PlanStatusDraft}, roles: append(append([]models.ActorRole{}, models.CreatorRoles...), models.RoleApprover)},
	{action: ActionCancel, from: nil, roles: models.ApproverRoles},
	{action: ActionComplete, from: []models.PlanStatus{models.PlanStatusActive}, roles: models.ApproverRoles},
}

// Apply выполняет переход над планом в памяти: проверяет статус, роль и
// предусловия, затем мутирует статус и поля аудита. При любой ошибке план
// остаётся нетронутым. Сохранение в БД — забота вызывающего кода, внутри
// одной транзакции с перечитыванием статуса.
func Apply(plan *models.MenuPlan, req Request) error {
	rule := findTransition(req.Action)
	if rule == nil {
		return &models.ValidationError{Field: "action", Reason: "неизвестное действие: " + string(req.Action)}
	}

	if err := checkSourceState(plan, rule); err != nil {
		return err
	}
	if !roleAllowed(req.Role, rule.roles) {
		return &models.PermissionError{Role: req.Role, Action: string(req.Action)}
	}
	if err := checkPreconditions(req); err != nil {
		return err
	}

	applyEffects(plan, req)
	return nil
}

// AllowedRoles возвращает роли, которым разрешено действие. Нужен фасаду
// для сообщений об ошибках и фронтенду для скрытия кнопок.
func AllowedRoles(action Action) []models.ActorRole {
	if rule := findTransition(action); rule != nil {
		return rule.roles
	}
	return nil
}

func findTransition(action Action) *transition {
	for i := range transitions {
		if transitions[i].action == action {
			return &transitions[i]
		}
	}
	return nil
}

func checkSourceState(plan *models.MenuPlan, rule *transition) error {
	if len(rule.from) == 0 {
		// Переход «из любого нетерминального» (cancel).
		if plan.Status.IsTerminal() {
			return &models.StateConflictError{
				Reason: "план в терминальном статусе " + string(plan.Status) + " изменить нельзя",
			}
		}
		return nil
	}
	for _, from := range rule.from {
		if plan.Status == from {
			return nil
		}
	}
	return &models.StateConflictError{
		Reason: "переход " + string(rule.action) + " невозможен из статуса " + string(plan.Status),
	}
}

func roleAllowed(role models.ActorRole, allowed []models.ActorRole) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

func checkPreconditions(req Request) error {
	if req.Action == ActionReject {
		// Длина в рунах: причины пишутся кириллицей, байтовая длина врёт вдвое.
		if utf8.RuneCountInString(strings.TrimSpace(req.Reason)) < MinRejectionReasonLen {
			return &models.ValidationError{
				Field:  "reason",
				Reason: "причина отклонения должна содержать не менее 10 символов",
			}
		}
	}
	return nil
}

func applyEffects(plan *models.MenuPlan, req Request) {
	now := req.Now
	actor := req.ActorID

	switch req.Action {
	case ActionSubmit:
		plan.Status = models.PlanStatusPendingReview
		plan.SubmittedByID = &actor
		plan.SubmittedAt = &now

	case ActionApprove:
		plan.Status = models.PlanStatusApproved
		plan.ApprovedByID = &actor
		plan.ApprovedAt = &now

	case ActionReject:
		// Возврат в черновик: трек согласования теряется, назначения — нет.
		plan.Status = models.PlanStatusDraft
		plan.RejectedByID = &actor
		plan.RejectedAt = &now
		plan.RejectionReason = strings.TrimSpace(req.Reason)

	case ActionPublish:
		plan.PublishedByID = &actor
		plan.PublishedAt = &now
		if plan.ContainsDate(now) {
			plan.Status = models.PlanStatusActive
		} else {
			plan.Status = models.PlanStatusPublished
		}

	case ActionArchive:
		plan.Status = models.PlanStatusArchived

	case ActionCancel:
		plan.Status = models.PlanStatusCancelled

	case ActionComplete:
		plan.Status = models.PlanStatusCompleted
	}

	plan.IsDraft = plan.Status == models.PlanStatusDraft
	plan.IsActive = plan.Status == models.PlanStatusActive
	plan.IsArchived = plan.Status == models.PlanStatusArchived
}
