package handler

import (
	"github.com/gofiber/fiber/v2"

	"kiosk-attendance-backend/internal/alarm"
	"kiosk-attendance-backend/internal/middleware"
	"kiosk-attendance-backend/internal/model"
	"kiosk-attendance-backend/internal/repository"
	"kiosk-attendance-backend/internal/usecase"
)

type EmployeeHandler struct {
	repo       repository.EmployeeRepository
	attendance repository.AttendanceRepository
	reporter   *alarm.Reporter
	clock      usecase.Clock
}

func NewEmployeeHandler(repo repository.EmployeeRepository, attendance repository.AttendanceRepository, reporter *alarm.Reporter, clock usecase.Clock) *EmployeeHandler {
	return &EmployeeHandler{repo: repo, attendance: attendance, reporter: reporter, clock: clock}
}

type CreateEmployeeRequest struct {
	EmployeeID    string `json:"employeeId" validate:"required,max=64"`
	Name          string `json:"name" validate:"required,max=255"`
	ContactNumber string `json:"contactNumber" validate:"max=32"`
	Department    string `json:"department" validate:"max=128"`
}

type UpdateEmployeeRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	ContactNumber string `json:"contactNumber" validate:"max=32"`
	Department    string `json:"department" validate:"max=128"`
	IsActive      *bool  `json:"isActive"`
}

func (h *EmployeeHandler) List(c *fiber.Ctx) error {
	f := repository.EmployeeFilter{
		Search:   c.Query("search"),
		IsActive: queryBool(c, "isActive"),
		Page:     queryPage(c),
	}
	employees, total, err := h.repo.List(c.UserContext(), f)
	if err != nil {
		return storeError(c, err, "Employee not found", "Failed to fetch employees")
	}
	return c.JSON(paginated(employees, total, f.Page))
}

func (h *EmployeeHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid employee id"})
	}
	employee, err := h.repo.FindByID(c.UserContext(), id)
	if err != nil {
		return storeError(c, err, "Employee not found", "Failed to fetch employee")
	}
	return c.JSON(fiber.Map{"data": employee})
}

func (h *EmployeeHandler) Create(c *fiber.Ctx) error {
	var req CreateEmployeeRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	// employee codes are unique
	if _, err := h.repo.FindByCode(c.UserContext(), req.EmployeeID); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Employee ID already exists"})
	}

	employee := &model.Employee{
		EmployeeCode:  req.EmployeeID,
		Name:          req.Name,
		ContactNumber: req.ContactNumber,
		Department:    req.Department,
		IsActive:      true,
	}
	if err := h.repo.Create(c.UserContext(), employee); err != nil {
		return storeError(c, err, "Employee not found", "Failed to create employee")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Employee created successfully", "employee": employee})
}

func (h *EmployeeHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid employee id"})
	}
	var req UpdateEmployeeRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}

	employee, err := h.repo.FindByID(c.UserContext(), id)
	if err != nil {
		return storeError(c, err, "Employee not found", "Failed to fetch employee")
	}
	employee.Name = req.Name
	employee.ContactNumber = req.ContactNumber
	employee.Department = req.Department
	if req.IsActive != nil {
		employee.IsActive = *req.IsActive
	}

	if err := h.repo.Update(c.UserContext(), employee); err != nil {
		return storeError(c, err, "Employee not found", "Failed to update employee")
	}
	return c.JSON(fiber.Map{"message": "Employee updated successfully", "employee": employee})
}

func (h *EmployeeHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid employee id"})
	}
	if err := h.repo.Deactivate(c.UserContext(), id); err != nil {
		return storeError(c, err, "Employee not found", "Failed to delete employee")
	}

	userID, _ := middleware.UserID(c)
	_ = h.reporter.Audit(c.UserContext(), alarm.Entry{
		Action:     model.AuditEmployeeDeleted,
		EntityType: "employee",
		EntityID:   id,
		UserID:     &userID,
		IPAddress:  c.IP(),
	})
	return c.JSON(fiber.Map{"message": "Employee deleted successfully"})
}

// Attendance lists one employee's scan history, newest first.
func (h *EmployeeHandler) Attendance(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid employee id"})
	}

	loc := h.clock.Now().Location()
	f := repository.AttendanceFilter{
		EmployeeID: id,
		From:       queryDate(c, "startDate", loc, false),
		To:         queryDate(c, "endDate", loc, true),
		Page:       queryPage(c),
	}
	records, total, err := h.attendance.List(c.UserContext(), f)
	if err != nil {
		return storeError(c, err, "Attendance not found", "Failed to fetch attendance history")
	}
	return c.JSON(paginated(records, total, f.Page))
}
