package workflow

import (
	"context"

	"nutriplan-crm/internal/allocator"
	"nutriplan-crm/internal/analytics"
	"nutriplan-crm/internal/store"
	"nutriplan-crm/models"
)

// Мутации назначений идут через фасад: после каждой он обновляет кэш
// агрегатов плана (totalMenus, totalEstimatedCost, averageCostPerDay) и
// сбрасывает кэш аналитики, чтобы списки оставались консистентными без
// полного пересчёта отчёта.

func (f *Facade) CreateAssignment(ctx context.Context, in allocator.CreateInput) (*models.MenuAssignment, error) {
	assignment, err := f.alloc.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := f.refreshPlanSummary(ctx, assignment.PlanID); err != nil {
		return nil, err
	}
	f.invalidate(ctx, assignment.PlanID)
	return assignment, nil
}

func (f *Facade) UpdateAssignment(ctx context.Context, id uint, in allocator.UpdateInput, role models.ActorRole) (*models.MenuAssignment, error) {
	assignment, err := f.alloc.Update(ctx, id, in, role)
	if err != nil {
		return nil, err
	}
	if err := f.refreshPlanSummary(ctx, assignment.PlanID); err != nil {
		return nil, err
	}
	f.invalidate(ctx, assignment.PlanID)
	return assignment, nil
}

func (f *Facade) DeleteAssignment(ctx context.Context, id uint, role models.ActorRole) error {
	planID, err := f.alloc.Delete(ctx, id, role)
	if err != nil {
		return err
	}
	if err := f.refreshPlanSummary(ctx, planID); err != nil {
		return err
	}
	f.invalidate(ctx, planID)
	return nil
}

func (f *Facade) ListAssignments(ctx context.Context, planID uint, filter store.AssignmentFilter) ([]models.MenuAssignment, error) {
	return f.alloc.List(ctx, planID, filter)
}

func (f *Facade) AutoFill(ctx context.Context, in allocator.AutoFillInput) ([]models.MenuAssignment, error) {
	created, err := f.alloc.AutoFill(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := f.refreshPlanSummary(ctx, in.PlanID); err != nil {
		return nil, err
	}
	f.invalidate(ctx, in.PlanID)
	return created, nil
}

// refreshPlanSummary пересчитывает кэшируемые агрегаты плана из текущего
// набора назначений. Дешёвые метрики считаются сразу, оценки качества
// обновляет GetAnalytics.
func (f *Facade) refreshPlanSummary(ctx context.Context, planID uint) error {
	return f.store.InTransaction(ctx, func(tx store.Store) error {
		plan, err := tx.GetPlan(ctx, planID)
		if err != nil {
			return err
		}
		assignments, err := tx.ListAssignments(ctx, planID, store.AssignmentFilter{})
		if err != nil {
			return err
		}

		plan.TotalMenus = len(assignments)
		plan.TotalEstimatedCost = analytics.TotalCost(assignments)
		plan.AverageCostPerDay = analytics.AverageCostPerDay(assignments)
		variety := analytics.VarietyScore(assignments)
		plan.VarietyScore = &variety

		return tx.SavePlan(ctx, plan)
	})
}
