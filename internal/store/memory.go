package store

import (
	"context"
	"sync"

	"nutriplan-crm/models"
)

// MemoryStore — реализация Store в памяти. Используется в тестах доменного
// ядра вместо реальной БД; семантику уникального слота обеспечивает
// аллокатор, а не это хранилище.
type MemoryStore struct {
	mu sync.Mutex

	plans       map[uint]models.MenuPlan
	assignments map[uint]models.MenuAssignment
	menus       map[uint]models.Menu
	programs    map[uint]models.NutritionProgram

	nextPlanID       uint
	nextAssignmentID uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans:       make(map[uint]models.MenuPlan),
		assignments: make(map[uint]models.MenuAssignment),
		menus:       make(map[uint]models.Menu),
		programs:    make(map[uint]models.NutritionProgram),
	}
}

// PutMenu и PutProgram наполняют справочники для тестов.
func (s *MemoryStore) PutMenu(m models.Menu) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menus[m.ID] = m
}

func (s *MemoryStore) PutProgram(p models.NutritionProgram) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programs[p.ID] = p
}

func (s *MemoryStore) GetPlan(ctx context.Context, id uint) (*models.MenuPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "план", ID: id}
	}
	copied := plan
	return &copied, nil
}

func (s *MemoryStore) SavePlan(ctx context.Context, plan *models.MenuPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if plan.ID == 0 {
		s.nextPlanID++
		plan.ID = s.nextPlanID
	}
	s.plans[plan.ID] = *plan
	return nil
}

func (s *MemoryStore) DeletePlan(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.plans, id)
	return nil
}

func (s *MemoryStore) GetAssignment(ctx context.Context, id uint) (*models.MenuAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	assignment, ok := s.assignments[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "назначение", ID: id}
	}
	copied := assignment
	return &copied, nil
}

func (s *MemoryStore) ListAssignments(ctx context.Context, planID uint, filter AssignmentFilter) ([]models.MenuAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []models.MenuAssignment
	for _, a := range s.assignments {
		if a.PlanID != planID {
			continue
		}
		day := models.DateOnly(a.AssignedDate)
		if filter.DateFrom != nil && day.Before(models.DateOnly(*filter.DateFrom)) {
			continue
		}
		if filter.DateTo != nil && day.After(models.DateOnly(*filter.DateTo)) {
			continue
		}
		if filter.MealType != nil && a.MealType != *filter.MealType {
			continue
		}
		result = append(result, a)
	}
	SortAssignments(result)
	return result, nil
}

func (s *MemoryStore) SaveAssignment(ctx context.Context, a *models.MenuAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		s.nextAssignmentID++
		a.ID = s.nextAssignmentID
	}
	s.assignments[a.ID] = *a
	return nil
}

func (s *MemoryStore) DeleteAssignment(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assignments, id)
	return nil
}

func (s *MemoryStore) GetMenu(ctx context.Context, id uint) (*models.Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	menu, ok := s.menus[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "меню", ID: id}
	}
	copied := menu
	return &copied, nil
}

func (s *MemoryStore) GetProgram(ctx context.Context, id uint) (*models.NutritionProgram, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	program, ok := s.programs[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "программа", ID: id}
	}
	copied := program
	return &copied, nil
}

// InTransaction в памяти не даёт отката, для тестов этого достаточно.
func (s *MemoryStore) InTransaction(ctx context.Context, fn func(tx Store) error) error {
	return fn(s)
}
