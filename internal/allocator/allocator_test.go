package allocator

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"nutriplan-crm/internal/store"
	"nutriplan-crm/models"
)

func date(day int) time.Time {
	return time.Date(2025, 11, day, 0, 0, 0, 0, time.UTC)
}

func newFixture(t *testing.T, status models.PlanStatus) (*Allocator, *store.MemoryStore, *models.MenuPlan) {
	t.Helper()
	ms := store.NewMemoryStore()

	ms.PutMenu(models.Menu{
		Model:          gorm.Model{ID: 1},
		Name:           "Куриный плов",
		MealType:       models.MealLunch,
		CostPerServing: 10000,
		Calories:       650,
		Protein:        30,
		Carbs:          80,
		Fat:            20,
		IsActive:       true,
	})
	ms.PutMenu(models.Menu{
		Model:          gorm.Model{ID: 2},
		Name:           "Овсяная каша",
		MealType:       models.MealBreakfast,
		CostPerServing: 4000,
		Calories:       350,
		Protein:        12,
		Carbs:          60,
		Fat:            8,
		IsActive:       true,
	})

	plan := &models.MenuPlan{
		PlanCode:  "PLN-ALLOC",
		Name:      "Ноябрьский план",
		StartDate: date(1),
		EndDate:   date(7),
		Status:    status,
		IsDraft:   status == models.PlanStatusDraft,
		ProgramID: 1,
	}
	if err := ms.SavePlan(context.Background(), plan); err != nil {
		t.Fatalf("SavePlan failed: %v", err)
	}
	return New(ms), ms, plan
}

func TestCreateAssignmentSnapshotsMenu(t *testing.T) {
	alloc, _, plan := newFixture(t, models.PlanStatusDraft)

	assignment, err := alloc.Create(context.Background(), CreateInput{
		PlanID:   plan.ID,
		MenuID:   1,
		Date:     date(3),
		MealType: models.MealLunch,
		Portions: 100,
		Role:     models.RolePlanner,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if assignment.EstimatedCost != 1000000 {
		t.Errorf("expected estimatedCost 1000000, got %v", assignment.EstimatedCost)
	}
	if assignment.Calories != 650 || assignment.Protein != 30 {
		t.Errorf("nutrition snapshot missing: %+v", assignment)
	}
	if assignment.Status != models.AssignmentPlanned {
		t.Errorf("expected PLANNED status, got %s", assignment.Status)
	}
}

// Слот (дата, приём пищи) уникален: вторая вставка падает с конфликтом и не
// меняет существующее назначение.
func TestSlotUniqueness(t *testing.T) {
	alloc, ms, plan := newFixture(t, models.PlanStatusDraft)
	ctx := context.Background()

	first, err := alloc.Create(ctx, CreateInput{
		PlanID: plan.ID, MenuID: 1, Date: date(3), MealType: models.MealLunch,
		Portions: 100, Role: models.RolePlanner,
	})
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err = alloc.Create(ctx, CreateInput{
		PlanID: plan.ID, MenuID: 2, Date: date(3), MealType: models.MealLunch,
		Portions: 50, Role: models.RolePlanner,
	})
	var stateErr *models.StateConflictError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected StateConflictError for occupied slot, got %v", err)
	}

	// Существующее назначение не тронуто.
	stored, err := ms.GetAssignment(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetAssignment failed: %v", err)
	}
	if stored.MenuID != 1 || stored.PlannedPortions != 100 {
		t.Errorf("existing assignment mutated: %+v", stored)
	}

	// Другой приём пищи в тот же день — свободный слот.
	if _, err := alloc.Create(ctx, CreateInput{
		PlanID: plan.ID, MenuID: 2, Date: date(3), MealType: models.MealBreakfast,
		Portions: 50, Role: models.RolePlanner,
	}); err != nil {
		t.Errorf("different meal type must be allowed: %v", err)
	}
}

func TestDateOutOfRange(t *testing.T) {
	alloc, _, plan := newFixture(t, models.PlanStatusDraft)

	for _, day := range []time.Time{date(8), time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)} {
		_, err := alloc.Create(context.Background(), CreateInput{
			PlanID: plan.ID, MenuID: 1, Date: day, MealType: models.MealLunch,
			Portions: 100, Role: models.RolePlanner,
		})
		var rangeErr *models.RangeError
		if !errors.As(err, &rangeErr) {
			t.Errorf("date %s: expected RangeError, got %v", day.Format("2006-01-02"), err)
		}
	}

	// Границы периода включительно.
	for _, day := range []time.Time{date(1), date(7)} {
		if _, err := alloc.Create(context.Background(), CreateInput{
			PlanID: plan.ID, MenuID: 1, Date: day, MealType: models.MealLunch,
			Portions: 100, Role: models.RolePlanner,
		}); err != nil {
			t.Errorf("boundary date %s must be allowed: %v", day.Format("2006-01-02"), err)
		}
	}
}

func TestNonPositivePortions(t *testing.T) {
	alloc, _, plan := newFixture(t, models.PlanStatusDraft)

	for _, portions := range []int{0, -5} {
		_, err := alloc.Create(context.Background(), CreateInput{
			PlanID: plan.ID, MenuID: 1, Date: date(3), MealType: models.MealLunch,
			Portions: portions, Role: models.RolePlanner,
		})
		var validationErr *models.ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("portions %d: expected ValidationError, got %v", portions, err)
		}
	}
}

func TestEditabilityGuard(t *testing.T) {
	// Черновик — можно.
	alloc, _, plan := newFixture(t, models.PlanStatusDraft)
	if _, err := alloc.Create(context.Background(), CreateInput{
		PlanID: plan.ID, MenuID: 1, Date: date(2), MealType: models.MealLunch,
		Portions: 10, Role: models.RolePlanner,
	}); err != nil {
		t.Errorf("draft must be editable: %v", err)
	}

	// На согласовании — только согласующим.
	alloc, _, plan = newFixture(t, models.PlanStatusPendingReview)
	_, err := alloc.Create(context.Background(), CreateInput{
		PlanID: plan.ID, MenuID: 1, Date: date(2), MealType: models.MealLunch,
		Portions: 10, Role: models.RolePlanner,
	})
	var permErr *models.PermissionError
	if !errors.As(err, &permErr) {
		t.Errorf("planner on pending review: expected PermissionError, got %v", err)
	}
	if _, err := alloc.Create(context.Background(), CreateInput{
		PlanID: plan.ID, MenuID: 1, Date: date(2), MealType: models.MealLunch,
		Portions: 10, Role: models.RoleApprover,
	}); err != nil {
		t.Errorf("approver on pending review must be allowed: %v", err)
	}

	// Активный план заморожен для всех.
	alloc, _, plan = newFixture(t, models.PlanStatusActive)
	_, err = alloc.Create(context.Background(), CreateInput{
		PlanID: plan.ID, MenuID: 1, Date: date(2), MealType: models.MealLunch,
		Portions: 10, Role: models.RoleAdmin,
	})
	var stateErr *models.StateConflictError
	if !errors.As(err, &stateErr) {
		t.Errorf("active plan: expected StateConflictError, got %v", err)
	}
}

func TestUpdateRevalidatesSlot(t *testing.T) {
	alloc, _, plan := newFixture(t, models.PlanStatusDraft)
	ctx := context.Background()

	lunch, err := alloc.Create(ctx, CreateInput{
		PlanID: plan.ID, MenuID: 1, Date: date(3), MealType: models.MealLunch,
		Portions: 100, Role: models.RolePlanner,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	breakfast, err := alloc.Create(ctx, CreateInput{
		PlanID: plan.ID, MenuID: 2, Date: date(3), MealType: models.MealBreakfast,
		Portions: 100, Role: models.RolePlanner,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Переезд в занятый слот — конфликт.
	lunchMeal := models.MealLunch
	_, err = alloc.Update(ctx, breakfast.ID, UpdateInput{MealType: &lunchMeal}, models.RolePlanner)
	var stateErr *models.StateConflictError
	if !errors.As(err, &stateErr) {
		t.Errorf("move to occupied slot: expected StateConflictError, got %v", err)
	}

	// Обновление без смены слота не конфликтует с самим собой.
	portions := 150
	updated, err := alloc.Update(ctx, lunch.ID, UpdateInput{Portions: &portions}, models.RolePlanner)
	if err != nil {
		t.Fatalf("update portions failed: %v", err)
	}
	if updated.EstimatedCost != 1500000 {
		t.Errorf("cost not recomputed from snapshot: %v", updated.EstimatedCost)
	}

	// Переезд на дату вне периода — RangeError.
	outside := date(9)
	_, err = alloc.Update(ctx, lunch.ID, UpdateInput{Date: &outside}, models.RolePlanner)
	var rangeErr *models.RangeError
	if !errors.As(err, &rangeErr) {
		t.Errorf("move outside range: expected RangeError, got %v", err)
	}
}

func TestUpdateMenuSwapResnapshots(t *testing.T) {
	alloc, _, plan := newFixture(t, models.PlanStatusDraft)
	ctx := context.Background()

	assignment, err := alloc.Create(ctx, CreateInput{
		PlanID: plan.ID, MenuID: 1, Date: date(3), MealType: models.MealLunch,
		Portions: 100, Role: models.RolePlanner,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	newMenu := uint(2)
	updated, err := alloc.Update(ctx, assignment.ID, UpdateInput{MenuID: &newMenu}, models.RolePlanner)
	if err != nil {
		t.Fatalf("menu swap failed: %v", err)
	}
	if updated.Calories != 350 || updated.UnitCost != 4000 {
		t.Errorf("snapshot not refreshed on menu swap: %+v", updated)
	}
	if updated.EstimatedCost != 400000 {
		t.Errorf("cost not recomputed on menu swap: %v", updated.EstimatedCost)
	}
}

func TestDeleteGuard(t *testing.T) {
	alloc, ms, plan := newFixture(t, models.PlanStatusDraft)
	ctx := context.Background()

	assignment, err := alloc.Create(ctx, CreateInput{
		PlanID: plan.ID, MenuID: 1, Date: date(3), MealType: models.MealLunch,
		Portions: 100, Role: models.RolePlanner,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Активный план — удалять нельзя.
	plan.Status = models.PlanStatusActive
	if err := ms.SavePlan(ctx, plan); err != nil {
		t.Fatalf("SavePlan failed: %v", err)
	}
	_, err = alloc.Delete(ctx, assignment.ID, models.RoleAdmin)
	var stateErr *models.StateConflictError
	if !errors.As(err, &stateErr) {
		t.Errorf("delete on active plan: expected StateConflictError, got %v", err)
	}

	// В черновике — можно.
	plan.Status = models.PlanStatusDraft
	if err := ms.SavePlan(ctx, plan); err != nil {
		t.Fatalf("SavePlan failed: %v", err)
	}
	if _, err := alloc.Delete(ctx, assignment.ID, models.RolePlanner); err != nil {
		t.Errorf("delete on draft failed: %v", err)
	}
}

func TestListStableOrder(t *testing.T) {
	alloc, _, plan := newFixture(t, models.PlanStatusDraft)
	ctx := context.Background()

	// Нарочно вразнобой.
	inputs := []CreateInput{
		{PlanID: plan.ID, MenuID: 1, Date: date(5), MealType: models.MealLunch, Portions: 10, Role: models.RolePlanner},
		{PlanID: plan.ID, MenuID: 2, Date: date(2), MealType: models.MealDinner, Portions: 10, Role: models.RolePlanner},
		{PlanID: plan.ID, MenuID: 2, Date: date(2), MealType: models.MealBreakfast, Portions: 10, Role: models.RolePlanner},
		{PlanID: plan.ID, MenuID: 1, Date: date(5), MealType: models.MealBreakfast, Portions: 10, Role: models.RolePlanner},
	}
	for _, in := range inputs {
		if _, err := alloc.Create(ctx, in); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	assignments, err := alloc.List(ctx, plan.ID, store.AssignmentFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(assignments) != 4 {
		t.Fatalf("expected 4 assignments, got %d", len(assignments))
	}

	expected := []struct {
		day      int
		mealType models.MealType
	}{
		{2, models.MealBreakfast},
		{2, models.MealDinner},
		{5, models.MealBreakfast},
		{5, models.MealLunch},
	}
	for i, exp := range expected {
		got := assignments[i]
		if got.AssignedDate.Day() != exp.day || got.MealType != exp.mealType {
			t.Errorf("position %d: expected (%d, %s), got (%d, %s)",
				i, exp.day, exp.mealType, got.AssignedDate.Day(), got.MealType)
		}
	}
}

// Автозаполнение с одним и тем же seed даёт одинаковый результат.
func TestAutoFillDeterministicBySeed(t *testing.T) {
	run := func() []models.MenuAssignment {
		alloc, _, plan := newFixture(t, models.PlanStatusDraft)
		created, err := alloc.AutoFill(context.Background(), AutoFillInput{
			PlanID:    plan.ID,
			MenuIDs:   []uint{1, 2},
			MealTypes: []models.MealType{models.MealBreakfast, models.MealLunch},
			Portions:  100,
			Role:      models.RolePlanner,
			Seed:      42,
		})
		if err != nil {
			t.Fatalf("AutoFill failed: %v", err)
		}
		return created
	}

	first := run()
	second := run()

	if len(first) != len(second) {
		t.Fatalf("different number of assignments: %d vs %d", len(first), len(second))
	}
	// Завтраков и обедов на 7 дней: по одному кандидату на слот.
	if len(first) != 14 {
		t.Errorf("expected 14 filled slots, got %d", len(first))
	}
	for i := range first {
		if first[i].MenuID != second[i].MenuID ||
			!first[i].AssignedDate.Equal(second[i].AssignedDate) ||
			first[i].MealType != second[i].MealType {
			t.Errorf("position %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestAutoFillSkipsOccupiedSlots(t *testing.T) {
	alloc, _, plan := newFixture(t, models.PlanStatusDraft)
	ctx := context.Background()

	manual, err := alloc.Create(ctx, CreateInput{
		PlanID: plan.ID, MenuID: 1, Date: date(3), MealType: models.MealLunch,
		Portions: 100, Role: models.RolePlanner,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	created, err := alloc.AutoFill(ctx, AutoFillInput{
		PlanID:    plan.ID,
		MenuIDs:   []uint{1, 2},
		MealTypes: []models.MealType{models.MealLunch},
		Portions:  50,
		Role:      models.RolePlanner,
		Seed:      7,
	})
	if err != nil {
		t.Fatalf("AutoFill failed: %v", err)
	}
	if len(created) != 6 {
		t.Errorf("expected 6 new assignments (7 days minus occupied), got %d", len(created))
	}
	for _, a := range created {
		if a.AssignedDate.Equal(manual.AssignedDate) && a.MealType == manual.MealType {
			t.Error("autofill overwrote an occupied slot")
		}
	}
}
