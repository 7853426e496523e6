package lifecycle

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"nutriplan-crm/models"
)

func draftPlan() *models.MenuPlan {
	return &models.MenuPlan{
		ID:        1,
		PlanCode:  "PLN-TEST",
		Status:    models.PlanStatusDraft,
		IsDraft:   true,
		StartDate: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 11, 7, 0, 0, 0, 0, time.UTC),
	}
}

func planInStatus(status models.PlanStatus) *models.MenuPlan {
	plan := draftPlan()
	plan.Status = status
	plan.IsDraft = status == models.PlanStatusDraft
	return plan
}

var testNow = time.Date(2025, 10, 20, 12, 0, 0, 0, time.UTC)

func apply(plan *models.MenuPlan, action Action, role models.ActorRole, reason string) error {
	return Apply(plan, Request{
		Action:  action,
		Role:    role,
		ActorID: 7,
		Reason:  reason,
		Now:     testNow,
	})
}

func TestSubmitFromDraft(t *testing.T) {
	plan := draftPlan()
	if err := apply(plan, ActionSubmit, models.RolePlanner, ""); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if plan.Status != models.PlanStatusPendingReview {
		t.Errorf("expected PENDING_REVIEW, got %s", plan.Status)
	}
	if plan.SubmittedAt == nil || plan.SubmittedByID == nil || *plan.SubmittedByID != 7 {
		t.Error("submit audit fields not set")
	}
	if plan.IsDraft {
		t.Error("IsDraft must be false after submit")
	}
}

// Монотонность переходов: из статуса S проходят только объявленные для S
// действия, остальные падают без побочных эффектов.
func TestTransitionMonotonicity(t *testing.T) {
	cases := []struct {
		status models.PlanStatus
		action Action
	}{
		{models.PlanStatusDraft, ActionApprove},
		{models.PlanStatusDraft, ActionReject},
		{models.PlanStatusDraft, ActionPublish},
		{models.PlanStatusApproved, ActionSubmit},
		{models.PlanStatusApproved, ActionApprove},
		{models.PlanStatusPublished, ActionArchive},
		{models.PlanStatusCompleted, ActionCancel},
		{models.PlanStatusCancelled, ActionSubmit},
	}

	for _, tc := range cases {
		plan := planInStatus(tc.status)
		before := *plan

		err := apply(plan, tc.action, models.RoleAdmin, "достаточно длинная причина")
		var stateErr *models.StateConflictError
		if !errors.As(err, &stateErr) {
			t.Errorf("%s from %s: expected StateConflictError, got %v", tc.action, tc.status, err)
		}
		if !reflect.DeepEqual(before, *plan) {
			t.Errorf("%s from %s: plan mutated on failed transition", tc.action, tc.status)
		}
	}
}

func TestRoleGuard(t *testing.T) {
	cases := []struct {
		status models.PlanStatus
		action Action
		role   models.ActorRole
	}{
		{models.PlanStatusDraft, ActionSubmit, models.RoleApprover},
		{models.PlanStatusDraft, ActionSubmit, models.RoleViewer},
		{models.PlanStatusPendingReview, ActionApprove, models.RolePlanner},
		{models.PlanStatusPendingReview, ActionReject, models.RoleNutritionist},
		{models.PlanStatusApproved, ActionPublish, models.RolePlanner},
		{models.PlanStatusActive, ActionCancel, models.RoleViewer},
	}

	for _, tc := range cases {
		plan := planInStatus(tc.status)
		before := *plan

		err := apply(plan, tc.action, tc.role, "достаточно длинная причина")
		var permErr *models.PermissionError
		if !errors.As(err, &permErr) {
			t.Errorf("%s as %s: expected PermissionError, got %v", tc.action, tc.role, err)
		}
		if !reflect.DeepEqual(before, *plan) {
			t.Errorf("%s as %s: plan mutated on permission failure", tc.action, tc.role)
		}
	}
}

func TestRejectRequiresReason(t *testing.T) {
	// Длина причины считается в символах, не в байтах: кириллическая строка
	// из 9 символов занимает 18 байт и всё равно слишком коротка.
	for _, reason := range []string{"", "   ", "коротко", "мало букв"} {
		plan := planInStatus(models.PlanStatusPendingReview)

		err := apply(plan, ActionReject, models.RoleApprover, reason)
		var validationErr *models.ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("reason %q: expected ValidationError, got %v", reason, err)
		}
		if plan.Status != models.PlanStatusPendingReview {
			t.Errorf("reason %q: plan mutated on precondition failure", reason)
		}
	}

	// Ровно 10 символов — проходит.
	plan := planInStatus(models.PlanStatusPendingReview)
	if err := apply(plan, ActionReject, models.RoleApprover, "не годится"); err != nil {
		t.Fatalf("10-char reason must pass: %v", err)
	}
	if plan.Status != models.PlanStatusDraft {
		t.Errorf("expected DRAFT after reject, got %s", plan.Status)
	}
}

// Отклонённый план возвращается в DRAFT с причиной, approvedAt не трогается,
// повторное согласование после reject невозможно без нового submit.
func TestRejectRoundTrip(t *testing.T) {
	plan := draftPlan()
	if err := apply(plan, ActionSubmit, models.RolePlanner, ""); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := apply(plan, ActionReject, models.RoleApprover, "Бюджет слишком высокий"); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	if plan.Status != models.PlanStatusDraft {
		t.Errorf("expected DRAFT after reject, got %s", plan.Status)
	}
	if plan.RejectionReason != "Бюджет слишком высокий" {
		t.Errorf("rejection reason not stored: %q", plan.RejectionReason)
	}
	if plan.ApprovedAt != nil {
		t.Error("approvedAt must stay nil after reject")
	}

	// approve после reject невозможен: план снова черновик.
	err := apply(plan, ActionApprove, models.RoleApprover, "")
	var stateErr *models.StateConflictError
	if !errors.As(err, &stateErr) {
		t.Errorf("expected StateConflictError approving rejected plan, got %v", err)
	}

	// Повторный цикл submit → approve проходит.
	if err := apply(plan, ActionSubmit, models.RolePlanner, ""); err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if err := apply(plan, ActionApprove, models.RoleApprover, ""); err != nil {
		t.Fatalf("approve after resubmit failed: %v", err)
	}
	if plan.Status != models.PlanStatusApproved || plan.ApprovedAt == nil {
		t.Error("approve audit fields not set after resubmit")
	}
}

func TestPublishSetsActiveInsidePeriod(t *testing.T) {
	plan := planInStatus(models.PlanStatusApproved)

	err := Apply(plan, Request{
		Action:  ActionPublish,
		Role:    models.RoleApprover,
		ActorID: 7,
		Now:     time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if plan.Status != models.PlanStatusActive || !plan.IsActive {
		t.Errorf("expected ACTIVE inside period, got %s", plan.Status)
	}
	if plan.PublishedAt == nil {
		t.Error("publishedAt not set")
	}
}

func TestPublishBeforePeriodStaysPublished(t *testing.T) {
	plan := planInStatus(models.PlanStatusApproved)

	err := Apply(plan, Request{
		Action:  ActionPublish,
		Role:    models.RoleApprover,
		ActorID: 7,
		Now:     time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if plan.Status != models.PlanStatusPublished || plan.IsActive {
		t.Errorf("expected PUBLISHED before period, got %s", plan.Status)
	}
}

func TestCancelFromAnyNonTerminal(t *testing.T) {
	for _, status := range []models.PlanStatus{
		models.PlanStatusDraft,
		models.PlanStatusPendingReview,
		models.PlanStatusApproved,
		models.PlanStatusPublished,
		models.PlanStatusActive,
	} {
		plan := planInStatus(status)
		if err := apply(plan, ActionCancel, models.RoleApprover, ""); err != nil {
			t.Errorf("cancel from %s failed: %v", status, err)
		}
		if plan.Status != models.PlanStatusCancelled {
			t.Errorf("cancel from %s: got %s", status, plan.Status)
		}
	}
}

func TestArchiveFromDraftOnly(t *testing.T) {
	plan := draftPlan()
	if err := apply(plan, ActionArchive, models.RolePlanner, ""); err != nil {
		t.Fatalf("archive from draft failed: %v", err)
	}
	if plan.Status != models.PlanStatusArchived || !plan.IsArchived {
		t.Errorf("expected ARCHIVED, got %s", plan.Status)
	}

	active := planInStatus(models.PlanStatusActive)
	err := apply(active, ActionArchive, models.RolePlanner, "")
	var stateErr *models.StateConflictError
	if !errors.As(err, &stateErr) {
		t.Errorf("archive from ACTIVE: expected StateConflictError, got %v", err)
	}
}
