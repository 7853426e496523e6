package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"nutriplan-crm/models"
)

// GormStore — реализация Store поверх GORM/PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore оборачивает подключение GORM в доменный интерфейс хранилища.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) GetPlan(ctx context.Context, id uint) (*models.MenuPlan, error) {
	var plan models.MenuPlan
	if err := s.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Entity: "план", ID: id}
		}
		return nil, err
	}
	return &plan, nil
}

func (s *GormStore) SavePlan(ctx context.Context, plan *models.MenuPlan) error {
	return s.db.WithContext(ctx).Save(plan).Error
}

func (s *GormStore) DeletePlan(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.MenuPlan{}, id).Error
}

func (s *GormStore) GetAssignment(ctx context.Context, id uint) (*models.MenuAssignment, error) {
	var assignment models.MenuAssignment
	if err := s.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Entity: "назначение", ID: id}
		}
		return nil, err
	}
	return &assignment, nil
}

func (s *GormStore) ListAssignments(ctx context.Context, planID uint, filter AssignmentFilter) ([]models.MenuAssignment, error) {
	query := s.db.WithContext(ctx).Where("plan_id = ?", planID)
	if filter.DateFrom != nil {
		query = query.Where("assigned_date >= ?", models.DateOnly(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		query = query.Where("assigned_date <= ?", models.DateOnly(*filter.DateTo))
	}
	if filter.MealType != nil {
		query = query.Where("meal_type = ?", *filter.MealType)
	}

	var assignments []models.MenuAssignment
	if err := query.Find(&assignments).Error; err != nil {
		return nil, err
	}
	SortAssignments(assignments)
	return assignments, nil
}

func (s *GormStore) SaveAssignment(ctx context.Context, a *models.MenuAssignment) error {
	return s.db.WithContext(ctx).Save(a).Error
}

func (s *GormStore) DeleteAssignment(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.MenuAssignment{}, id).Error
}

func (s *GormStore) GetMenu(ctx context.Context, id uint) (*models.Menu, error) {
	var menu models.Menu
	if err := s.db.WithContext(ctx).Preload("Ingredients").First(&menu, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Entity: "меню", ID: id}
		}
		return nil, err
	}
	return &menu, nil
}

func (s *GormStore) GetProgram(ctx context.Context, id uint) (*models.NutritionProgram, error) {
	var program models.NutritionProgram
	if err := s.db.WithContext(ctx).First(&program, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Entity: "программа", ID: id}
		}
		return nil, err
	}
	return &program, nil
}

func (s *GormStore) InTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
