// Package allocator владеет набором назначений одного плана: размещает меню
// в слоты (дата + приём пищи), следит за уникальностью слота, границами
// периода и редактируемостью плана.
package allocator

import (
	"context"
	"time"

	"nutriplan-crm/internal/store"
	"nutriplan-crm/models"
)

// Allocator выполняет операции над назначениями через интерфейс хранилища.
type Allocator struct {
	store store.Store
}

func New(s store.Store) *Allocator {
	return &Allocator{store: s}
}

// CreateInput — параметры создания назначения.
type CreateInput struct {
	PlanID         uint
	MenuID         uint
	Date           time.Time
	MealType       models.MealType
	Portions       int
	Role           models.ActorRole
	IsSubstitution bool
	Notes          string
}

// UpdateInput — частичное обновление назначения; nil-поля не трогаются.
type UpdateInput struct {
	MenuID   *uint
	Date     *time.Time
	MealType *models.MealType
	Portions *int
	Status   *models.AssignmentStatus
	Notes    *string

	// Фактические данные после производства.
	ActualPortions *int
	ActualCost     *float64
}

// Create размещает меню в свободный слот плана. Проверка занятости слота и
// вставка выполняются в одной транзакции, двойное бронирование дополнительно
// закрыто составным уникальным индексом в БД.
func (a *Allocator) Create(ctx context.Context, in CreateInput) (*models.MenuAssignment, error) {
	if err := validatePortions(in.Portions); err != nil {
		return nil, err
	}
	if !in.MealType.Valid() {
		return nil, &models.ValidationError{Field: "mealType", Reason: "неизвестный тип приёма пищи: " + string(in.MealType)}
	}

	var created *models.MenuAssignment
	err := a.store.InTransaction(ctx, func(tx store.Store) error {
		plan, err := tx.GetPlan(ctx, in.PlanID)
		if err != nil {
			return err
		}
		if err := checkEditable(plan, in.Role); err != nil {
			return err
		}
		if !plan.ContainsDate(in.Date) {
			return outOfRange(plan, in.Date)
		}
		if err := checkSlotFree(ctx, tx, plan.ID, in.Date, in.MealType, 0); err != nil {
			return err
		}

		menu, err := tx.GetMenu(ctx, in.MenuID)
		if err != nil {
			return err
		}

		assignment := &models.MenuAssignment{
			PlanID:          plan.ID,
			MenuID:          menu.ID,
			AssignedDate:    models.DateOnly(in.Date),
			MealType:        in.MealType,
			PlannedPortions: in.Portions,
			Status:          models.AssignmentPlanned,
			IsSubstitution:  in.IsSubstitution,
			Notes:           in.Notes,
		}
		snapshotMenu(assignment, menu)

		if err := tx.SaveAssignment(ctx, assignment); err != nil {
			return err
		}
		created = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update изменяет назначение. При смене даты или типа приёма пищи слот
// перепроверяется без учёта прежнего слота самого назначения, при смене меню
// снимок пищевой ценности и стоимость пересчитываются.
func (a *Allocator) Update(ctx context.Context, id uint, in UpdateInput, role models.ActorRole) (*models.MenuAssignment, error) {
	if in.Portions != nil {
		if err := validatePortions(*in.Portions); err != nil {
			return nil, err
		}
	}
	if in.MealType != nil && !in.MealType.Valid() {
		return nil, &models.ValidationError{Field: "mealType", Reason: "неизвестный тип приёма пищи: " + string(*in.MealType)}
	}

	var updated *models.MenuAssignment
	err := a.store.InTransaction(ctx, func(tx store.Store) error {
		assignment, err := tx.GetAssignment(ctx, id)
		if err != nil {
			return err
		}
		plan, err := tx.GetPlan(ctx, assignment.PlanID)
		if err != nil {
			return err
		}
		if err := checkEditable(plan, role); err != nil {
			return err
		}

		newDate := assignment.AssignedDate
		if in.Date != nil {
			newDate = models.DateOnly(*in.Date)
		}
		newMealType := assignment.MealType
		if in.MealType != nil {
			newMealType = *in.MealType
		}

		slotChanged := !newDate.Equal(models.DateOnly(assignment.AssignedDate)) || newMealType != assignment.MealType
		if slotChanged {
			if !plan.ContainsDate(newDate) {
				return outOfRange(plan, newDate)
			}
			if err := checkSlotFree(ctx, tx, plan.ID, newDate, newMealType, assignment.ID); err != nil {
				return err
			}
		}
		assignment.AssignedDate = newDate
		assignment.MealType = newMealType

		if in.MenuID != nil && *in.MenuID != assignment.MenuID {
			menu, err := tx.GetMenu(ctx, *in.MenuID)
			if err != nil {
				return err
			}
			assignment.MenuID = menu.ID
			snapshotMenu(assignment, menu)
		}
		if in.Portions != nil {
			assignment.PlannedPortions = *in.Portions
			assignment.EstimatedCost = assignment.UnitCost * float64(*in.Portions)
		}
		if in.Status != nil {
			assignment.Status = *in.Status
		}
		if in.Notes != nil {
			assignment.Notes = *in.Notes
		}
		if in.ActualPortions != nil {
			assignment.ActualPortions = in.ActualPortions
		}
		if in.ActualCost != nil {
			assignment.ActualCost = in.ActualCost
		}

		if err := tx.SaveAssignment(ctx, assignment); err != nil {
			return err
		}
		updated = assignment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete удаляет назначение. После активации плана назначения неизменяемы,
// что покрывается общей проверкой редактируемости.
func (a *Allocator) Delete(ctx context.Context, id uint, role models.ActorRole) (planID uint, err error) {
	err = a.store.InTransaction(ctx, func(tx store.Store) error {
		assignment, err := tx.GetAssignment(ctx, id)
		if err != nil {
			return err
		}
		plan, err := tx.GetPlan(ctx, assignment.PlanID)
		if err != nil {
			return err
		}
		if err := checkEditable(plan, role); err != nil {
			return err
		}
		planID = plan.ID
		return tx.DeleteAssignment(ctx, assignment.ID)
	})
	return planID, err
}

// List возвращает назначения плана, стабильно упорядоченные по
// (дата, порядок приёма пищи); фильтры — для календаря.
func (a *Allocator) List(ctx context.Context, planID uint, filter store.AssignmentFilter) ([]models.MenuAssignment, error) {
	if _, err := a.store.GetPlan(ctx, planID); err != nil {
		return nil, err
	}
	return a.store.ListAssignments(ctx, planID, filter)
}

func validatePortions(portions int) error {
	if portions <= 0 {
		return &models.ValidationError{Field: "portions", Reason: "число порций должно быть положительным"}
	}
	return nil
}

// checkEditable: черновик редактируют создатели, план на согласовании —
// только согласующие роли. Всё остальное закрыто для изменений.
func checkEditable(plan *models.MenuPlan, role models.ActorRole) error {
	switch plan.Status {
	case models.PlanStatusDraft:
		return nil
	case models.PlanStatusPendingReview:
		if role.IsApprover() {
			return nil
		}
		return &models.PermissionError{Role: role, Action: "изменение назначений плана на согласовании"}
	default:
		return &models.StateConflictError{
			Reason: "план в статусе " + string(plan.Status) + " не редактируется",
		}
	}
}

func checkSlotFree(ctx context.Context, tx store.Store, planID uint, date time.Time, mealType models.MealType, excludeID uint) error {
	day := models.DateOnly(date)
	existing, err := tx.ListAssignments(ctx, planID, store.AssignmentFilter{
		DateFrom: &day,
		DateTo:   &day,
		MealType: &mealType,
	})
	if err != nil {
		return err
	}
	for _, a := range existing {
		if a.ID != excludeID {
			return &models.StateConflictError{
				Reason: "слот " + day.Format("2006-01-02") + " / " + string(mealType) + " уже занят",
			}
		}
	}
	return nil
}

func snapshotMenu(a *models.MenuAssignment, menu *models.Menu) {
	a.UnitCost = menu.CostPerServing
	a.EstimatedCost = menu.CostPerServing * float64(a.PlannedPortions)
	a.Calories = menu.Calories
	a.Protein = menu.Protein
	a.Carbs = menu.Carbs
	a.Fat = menu.Fat
}

func outOfRange(plan *models.MenuPlan, date time.Time) error {
	return &models.RangeError{
		Reason: "дата " + models.DateOnly(date).Format("2006-01-02") +
			" вне периода плана " + models.DateOnly(plan.StartDate).Format("2006-01-02") +
			" — " + models.DateOnly(plan.EndDate).Format("2006-01-02"),
	}
}
