package repository

import (
	"context"

	"kiosk-attendance-backend/internal/model"

	"gorm.io/gorm"
)

type EmployeeFilter struct {
	Search   string
	IsActive *bool
	Page
}

type EmployeeRepository interface {
	Create(ctx context.Context, employee *model.Employee) error
	Update(ctx context.Context, employee *model.Employee) error
	FindByID(ctx context.Context, id uint) (*model.Employee, error)
	FindByCode(ctx context.Context, code string) (*model.Employee, error)
	List(ctx context.Context, f EmployeeFilter) ([]model.Employee, int64, error)
	Deactivate(ctx context.Context, id uint) error
}

type employeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db}
}

func (r *employeeRepository) Create(ctx context.Context, employee *model.Employee) error {
	return classify(r.db.WithContext(ctx).Create(employee).Error)
}

func (r *employeeRepository) Update(ctx context.Context, employee *model.Employee) error {
	return classify(r.db.WithContext(ctx).Save(employee).Error)
}

func (r *employeeRepository) FindByID(ctx context.Context, id uint) (*model.Employee, error) {
	var employee model.Employee
	if err := r.db.WithContext(ctx).First(&employee, id).Error; err != nil {
		return nil, classify(err)
	}
	return &employee, nil
}

func (r *employeeRepository) FindByCode(ctx context.Context, code string) (*model.Employee, error) {
	var employee model.Employee
	if err := r.db.WithContext(ctx).Where("employee_code = ?", code).First(&employee).Error; err != nil {
		return nil, classify(err)
	}
	return &employee, nil
}

func (r *employeeRepository) List(ctx context.Context, f EmployeeFilter) ([]model.Employee, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Employee{})
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("name LIKE ? OR employee_code LIKE ?", like, like)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err)
	}

	var employees []model.Employee
	err := q.Order("name asc").Offset(f.Offset()).Limit(f.Size()).Find(&employees).Error
	return employees, total, classify(err)
}

// Deactivate clears is_active and soft-deletes the row, so scans with the
// employee's code stop resolving.
func (r *employeeRepository) Deactivate(ctx context.Context, id uint) error {
	return deactivate(r.db.WithContext(ctx), &model.Employee{}, id)
}
