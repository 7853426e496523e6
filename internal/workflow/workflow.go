// Package workflow — единая точка входа доменного ядра. Фасад принимает
// намерение (submit/approve/reject/publish и т.д.), координирует машину
// состояний и аллокатор, обновляет кэш агрегатов плана и сбрасывает кэш
// аналитики. Аллокатор и машина состояний друг друга не вызывают.
package workflow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"nutriplan-crm/internal/allocator"
	"nutriplan-crm/internal/analytics"
	"nutriplan-crm/internal/lifecycle"
	"nutriplan-crm/internal/store"
	"nutriplan-crm/models"
)

// ReportCache кэширует аналитические отчёты между запросами.
type ReportCache interface {
	GetReport(ctx context.Context, planID uint) (*analytics.Report, bool)
	SetReport(ctx context.Context, planID uint, report *analytics.Report)
	Invalidate(ctx context.Context, planID uint)
}

// EventSink получает уведомления о переходах плана (websocket-хаб).
// Доставка вне транзакции, fire-and-forget.
type EventSink interface {
	PlanStatusChanged(planID uint, planCode string, from, to models.PlanStatus)
}

// Facade координирует компоненты ядра.
type Facade struct {
	store  store.Store
	alloc  *allocator.Allocator
	cache  ReportCache
	events EventSink
	now    func() time.Time
}

// New собирает фасад. cache и events могут быть nil.
func New(s store.Store, cache ReportCache, events EventSink) *Facade {
	return &Facade{
		store:  s,
		alloc:  allocator.New(s),
		cache:  cache,
		events: events,
		now:    time.Now,
	}
}

// WithClock подменяет источник времени (для тестов publish/active).
func (f *Facade) WithClock(now func() time.Time) *Facade {
	f.now = now
	return f
}

// --- Планы ---

// CreatePlanInput — параметры создания плана.
type CreatePlanInput struct {
	ProgramID   uint
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	CreatedByID uint
	Role        models.ActorRole
	Rules       []models.PlanningRule
}

// CreatePlan создаёт план в статусе DRAFT.
func (f *Facade) CreatePlan(ctx context.Context, in CreatePlanInput) (*models.MenuPlan, error) {
	if !in.Role.IsCreator() {
		return nil, &models.PermissionError{Role: in.Role, Action: "создание плана"}
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, &models.ValidationError{Field: "name", Reason: "название плана обязательно"}
	}
	if !models.DateOnly(in.EndDate).After(models.DateOnly(in.StartDate)) {
		return nil, &models.ValidationError{Field: "endDate", Reason: "дата окончания должна быть позже даты начала"}
	}
	if _, err := f.store.GetProgram(ctx, in.ProgramID); err != nil {
		return nil, err
	}

	rules, err := models.EncodePlanningRules(in.Rules)
	if err != nil {
		return nil, &models.ValidationError{Field: "planningRules", Reason: err.Error()}
	}

	plan := &models.MenuPlan{
		PlanCode:      "PLN-" + strings.ToUpper(uuid.NewString()[:8]),
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		StartDate:     models.DateOnly(in.StartDate),
		EndDate:       models.DateOnly(in.EndDate),
		Status:        models.PlanStatusDraft,
		IsDraft:       true,
		ProgramID:     in.ProgramID,
		CreatedByID:   in.CreatedByID,
		PlanningRules: rules,
	}
	if err := f.store.SavePlan(ctx, plan); err != nil {
		return nil, err
	}
	slog.Info("План создан", "plan_id", plan.ID, "plan_code", plan.PlanCode)
	return plan, nil
}

// UpdatePlanInput — частичное редактирование плана; только в DRAFT.
type UpdatePlanInput struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Rules       []models.PlanningRule
	Role        models.ActorRole
}

// UpdatePlan редактирует поля черновика. Сужение периода допускается только
// если все существующие назначения остаются внутри нового периода.
func (f *Facade) UpdatePlan(ctx context.Context, planID uint, in UpdatePlanInput) (*models.MenuPlan, error) {
	if !in.Role.IsCreator() {
		return nil, &models.PermissionError{Role: in.Role, Action: "редактирование плана"}
	}

	var updated *models.MenuPlan
	err := f.store.InTransaction(ctx, func(tx store.Store) error {
		plan, err := tx.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if plan.Status != models.PlanStatusDraft {
			return &models.StateConflictError{Reason: "редактировать можно только черновик плана"}
		}

		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				return &models.ValidationError{Field: "name", Reason: "название плана обязательно"}
			}
			plan.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			plan.Description = *in.Description
		}
		if in.StartDate != nil {
			plan.StartDate = models.DateOnly(*in.StartDate)
		}
		if in.EndDate != nil {
			plan.EndDate = models.DateOnly(*in.EndDate)
		}
		if !plan.EndDate.After(plan.StartDate) {
			return &models.ValidationError{Field: "endDate", Reason: "дата окончания должна быть позже даты начала"}
		}
		if in.Rules != nil {
			rules, err := models.EncodePlanningRules(in.Rules)
			if err != nil {
				return &models.ValidationError{Field: "planningRules", Reason: err.Error()}
			}
			plan.PlanningRules = rules
		}

		assignments, err := tx.ListAssignments(ctx, plan.ID, store.AssignmentFilter{})
		if err != nil {
			return err
		}
		for _, a := range assignments {
			if !plan.ContainsDate(a.AssignedDate) {
				return &models.ValidationError{
					Field:  "startDate",
					Reason: "назначение от " + models.DateOnly(a.AssignedDate).Format("2006-01-02") + " выпадает из нового периода",
				}
			}
		}

		if err := tx.SavePlan(ctx, plan); err != nil {
			return err
		}
		updated = plan
		return nil
	})
	if err != nil {
		return nil, err
	}
	f.invalidate(ctx, planID)
	return updated, nil
}

// DeletePlan удаляет черновик вместе с его назначениями.
func (f *Facade) DeletePlan(ctx context.Context, planID uint, role models.ActorRole) error {
	if !role.IsCreator() {
		return &models.PermissionError{Role: role, Action: "удаление плана"}
	}
	err := f.store.InTransaction(ctx, func(tx store.Store) error {
		plan, err := tx.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		if plan.Status != models.PlanStatusDraft {
			return &models.StateConflictError{Reason: "удалять можно только черновик плана"}
		}
		assignments, err := tx.ListAssignments(ctx, plan.ID, store.AssignmentFilter{})
		if err != nil {
			return err
		}
		for _, a := range assignments {
			if err := tx.DeleteAssignment(ctx, a.ID); err != nil {
				return err
			}
		}
		return tx.DeletePlan(ctx, plan.ID)
	})
	if err != nil {
		return err
	}
	f.invalidate(ctx, planID)
	return nil
}

// --- Переходы жизненного цикла ---

// TransitionInput — общий вход для всех переходов.
type TransitionInput struct {
	PlanID  uint
	Role    models.ActorRole
	ActorID uint
	Reason  string
}

func (f *Facade) SubmitPlan(ctx context.Context, in TransitionInput) (*models.MenuPlan, error) {
	return f.transition(ctx, lifecycle.ActionSubmit, in)
}

func (f *Facade) ApprovePlan(ctx context.Context, in TransitionInput) (*models.MenuPlan, error) {
	return f.transition(ctx, lifecycle.ActionApprove, in)
}

func (f *Facade) RejectPlan(ctx context.Context, in TransitionInput) (*models.MenuPlan, error) {
	return f.transition(ctx, lifecycle.ActionReject, in)
}

func (f *Facade) PublishPlan(ctx context.Context, in TransitionInput) (*models.MenuPlan, error) {
	return f.transition(ctx, lifecycle.ActionPublish, in)
}

func (f *Facade) ArchivePlan(ctx context.Context, in TransitionInput) (*models.MenuPlan, error) {
	return f.transition(ctx, lifecycle.ActionArchive, in)
}

func (f *Facade) CancelPlan(ctx context.Context, in TransitionInput) (*models.MenuPlan, error) {
	return f.transition(ctx, lifecycle.ActionCancel, in)
}

func (f *Facade) CompletePlan(ctx context.Context, in TransitionInput) (*models.MenuPlan, error) {
	return f.transition(ctx, lifecycle.ActionComplete, in)
}

// transition выполняет переход атомарно: статус перечитывается внутри
// транзакции, так что два конкурентных запроса из одного устаревшего статуса
// не пройдут оба.
func (f *Facade) transition(ctx context.Context, action lifecycle.Action, in TransitionInput) (*models.MenuPlan, error) {
	var updated *models.MenuPlan
	var fromStatus models.PlanStatus

	err := f.store.InTransaction(ctx, func(tx store.Store) error {
		plan, err := tx.GetPlan(ctx, in.PlanID)
		if err != nil {
			return err
		}
		fromStatus = plan.Status

		// Предусловие отправки: фасад сверяется с аллокатором, машина
		// состояний про покрытие не знает.
		if action == lifecycle.ActionSubmit {
			assignments, err := tx.ListAssignments(ctx, plan.ID, store.AssignmentFilter{})
			if err != nil {
				return err
			}
			if len(assignments) == 0 {
				return &models.ValidationError{
					Field:  "assignments",
					Reason: "нельзя отправить на согласование план без назначений",
				}
			}
		}

		if err := lifecycle.Apply(plan, lifecycle.Request{
			Action:  action,
			Role:    in.Role,
			ActorID: in.ActorID,
			Reason:  in.Reason,
			Now:     f.now(),
		}); err != nil {
			return err
		}

		if err := tx.SavePlan(ctx, plan); err != nil {
			return err
		}
		updated = plan
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.invalidate(ctx, in.PlanID)
	if f.events != nil && fromStatus != updated.Status {
		f.events.PlanStatusChanged(updated.ID, updated.PlanCode, fromStatus, updated.Status)
	}
	slog.Info("Переход плана выполнен",
		"plan_id", updated.ID, "action", string(action),
		"from", string(fromStatus), "to", string(updated.Status), "role", string(in.Role))
	return updated, nil
}

func (f *Facade) invalidate(ctx context.Context, planID uint) {
	if f.cache != nil {
		f.cache.Invalidate(ctx, planID)
	}
}
