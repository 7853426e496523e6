package allocator

import (
	"context"
	"math/rand"
	"time"

	"nutriplan-crm/internal/store"
	"nutriplan-crm/models"
)

// AutoFillInput — параметры автозаполнения пустых слотов плана.
type AutoFillInput struct {
	PlanID    uint
	MenuIDs   []uint
	MealTypes []models.MealType
	Portions  int
	Role      models.ActorRole
	// Seed делает выбор кандидатов воспроизводимым: один и тот же seed на
	// одном и том же пуле меню даёт одинаковое заполнение.
	Seed int64
}

// AutoFill проходит по дням плана и заполняет свободные слоты меню из пула.
// Для каждого слота берутся кандидаты подходящего типа приёма пищи, выбор
// детерминирован заданным seed. Занятые слоты не трогаются.
func (a *Allocator) AutoFill(ctx context.Context, in AutoFillInput) ([]models.MenuAssignment, error) {
	if err := validatePortions(in.Portions); err != nil {
		return nil, err
	}
	if len(in.MenuIDs) == 0 {
		return nil, &models.ValidationError{Field: "menuIds", Reason: "пул меню пуст"}
	}
	mealTypes := in.MealTypes
	if len(mealTypes) == 0 {
		mealTypes = models.AllMealTypes
	}

	var created []models.MenuAssignment
	err := a.store.InTransaction(ctx, func(tx store.Store) error {
		plan, err := tx.GetPlan(ctx, in.PlanID)
		if err != nil {
			return err
		}
		if err := checkEditable(plan, in.Role); err != nil {
			return err
		}

		// Пул меню группируем по типу приёма пищи один раз.
		pool := make(map[models.MealType][]*models.Menu)
		for _, menuID := range in.MenuIDs {
			menu, err := tx.GetMenu(ctx, menuID)
			if err != nil {
				return err
			}
			if !menu.IsActive {
				continue
			}
			pool[menu.MealType] = append(pool[menu.MealType], menu)
		}

		existing, err := tx.ListAssignments(ctx, plan.ID, store.AssignmentFilter{})
		if err != nil {
			return err
		}
		occupied := make(map[string]bool, len(existing))
		for _, assignment := range existing {
			occupied[slotKey(assignment.AssignedDate, assignment.MealType)] = true
		}

		rng := rand.New(rand.NewSource(in.Seed))
		start := models.DateOnly(plan.StartDate)
		for day := 0; day < plan.CalendarDays(); day++ {
			date := start.AddDate(0, 0, day)
			for _, mealType := range mealTypes {
				if occupied[slotKey(date, mealType)] {
					continue
				}
				candidates := pool[mealType]
				if len(candidates) == 0 {
					continue
				}
				menu := candidates[rng.Intn(len(candidates))]

				assignment := &models.MenuAssignment{
					PlanID:          plan.ID,
					MenuID:          menu.ID,
					AssignedDate:    date,
					MealType:        mealType,
					PlannedPortions: in.Portions,
					Status:          models.AssignmentPlanned,
				}
				snapshotMenu(assignment, menu)
				if err := tx.SaveAssignment(ctx, assignment); err != nil {
					return err
				}
				created = append(created, *assignment)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func slotKey(date time.Time, mealType models.MealType) string {
	return models.DateOnly(date).Format("2006-01-02") + "|" + string(mealType)
}
