package handler

import (
	"github.com/gofiber/fiber/v2"

	"kiosk-attendance-backend/internal/alarm"
	"kiosk-attendance-backend/internal/middleware"
	"kiosk-attendance-backend/internal/model"
	"kiosk-attendance-backend/internal/repository"
	"kiosk-attendance-backend/internal/usecase"
)

type AlarmHandler struct {
	repo     repository.AlarmRepository
	reporter *alarm.Reporter
	clock    usecase.Clock
}

func NewAlarmHandler(repo repository.AlarmRepository, reporter *alarm.Reporter, clock usecase.Clock) *AlarmHandler {
	return &AlarmHandler{repo: repo, reporter: reporter, clock: clock}
}

func (h *AlarmHandler) List(c *fiber.Ctx) error {
	loc := h.clock.Now().Location()
	f := repository.AlarmFilter{
		Type:       c.Query("type"),
		Severity:   c.Query("severity"),
		IsResolved: queryBool(c, "isResolved"),
		From:       queryDate(c, "startDate", loc, false),
		To:         queryDate(c, "endDate", loc, true),
		Page:       queryPage(c),
	}
	if f.Type != "" {
		if _, ok := alarm.ParseType(f.Type); !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown alarm type"})
		}
	}
	if f.Severity != "" && !alarm.Severity(f.Severity).Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unknown severity"})
	}

	alarms, total, err := h.repo.List(c.UserContext(), f)
	if err != nil {
		return storeError(c, err, "Alarm not found", "Failed to fetch alarms")
	}
	return c.JSON(paginated(alarms, total, f.Page))
}

func (h *AlarmHandler) UnresolvedCount(c *fiber.Ctx) error {
	counts, err := h.repo.CountUnresolvedBySeverity(c.UserContext())
	if err != nil {
		return storeError(c, err, "Alarm not found", "Failed to count alarms")
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	return c.JSON(fiber.Map{"total": total, "bySeverity": counts})
}

func (h *AlarmHandler) Recent(c *fiber.Ctx) error {
	alarms, err := h.repo.Recent(c.UserContext(), c.QueryInt("limit", 10))
	if err != nil {
		return storeError(c, err, "Alarm not found", "Failed to fetch recent alarms")
	}
	return c.JSON(fiber.Map{"data": alarms})
}

// Summary aggregates alarms over startDate..endDate, defaulting to the last 30 days.
func (h *AlarmHandler) Summary(c *fiber.Ctx) error {
	now := h.clock.Now()
	from, to := now.AddDate(0, 0, -30), now
	if v := queryDate(c, "startDate", now.Location(), false); v != nil {
		from = *v
	}
	if v := queryDate(c, "endDate", now.Location(), true); v != nil {
		to = *v
	}

	sum, err := h.repo.Summary(c.UserContext(), from, to)
	if err != nil {
		return storeError(c, err, "Alarm not found", "Failed to fetch alarm statistics")
	}
	return c.JSON(fiber.Map{"stats": sum, "from": from, "to": to})
}

func (h *AlarmHandler) Get(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid alarm id"})
	}
	a, err := h.repo.FindByID(c.UserContext(), id)
	if err != nil {
		return storeError(c, err, "Alarm not found", "Failed to fetch alarm")
	}
	return c.JSON(fiber.Map{"data": a})
}

type ResolveRequest struct {
	Resolution string `json:"resolution" validate:"max=255"`
	Notes      string `json:"notes" validate:"max=2000"`
}

func (h *AlarmHandler) Resolve(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid alarm id"})
	}
	var req ResolveRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if req.Resolution == "" {
		req.Resolution = "Resolved by admin"
	}

	userID, _ := middleware.UserID(c)
	err := h.repo.Resolve(c.UserContext(), id, repository.Resolution{
		By:         userID,
		Resolution: req.Resolution,
		Notes:      req.Notes,
		At:         h.clock.Now(),
	})
	if err != nil {
		return storeError(c, err, "Alarm not found or already resolved", "Failed to resolve alarm")
	}

	_ = h.reporter.Audit(c.UserContext(), alarm.Entry{
		Action:     model.AuditAlarmResolved,
		EntityType: "alarm",
		EntityID:   id,
		UserID:     &userID,
		Details:    map[string]any{"resolution": req.Resolution, "notes": req.Notes},
		IPAddress:  c.IP(),
	})

	a, err := h.repo.FindByID(c.UserContext(), id)
	if err != nil {
		return c.JSON(fiber.Map{"message": "Alarm resolved successfully"})
	}
	return c.JSON(fiber.Map{"message": "Alarm resolved successfully", "alarm": a})
}

type BulkResolveRequest struct {
	AlarmIDs   []uint `json:"alarmIds" validate:"required,min=1,dive,gt=0"`
	Resolution string `json:"resolution" validate:"max=255"`
}

func (h *AlarmHandler) BulkResolve(c *fiber.Ctx) error {
	var req BulkResolveRequest
	if ok, err := bind(c, &req); !ok {
		return err
	}
	if req.Resolution == "" {
		req.Resolution = "Bulk resolved by admin"
	}

	userID, _ := middleware.UserID(c)
	n, err := h.repo.ResolveMany(c.UserContext(), req.AlarmIDs, repository.Resolution{
		By:         userID,
		Resolution: req.Resolution,
		At:         h.clock.Now(),
	})
	if err != nil {
		return storeError(c, err, "Alarm not found", "Failed to resolve alarms")
	}

	for _, id := range req.AlarmIDs {
		_ = h.reporter.Audit(c.UserContext(), alarm.Entry{
			Action:     model.AuditAlarmResolved,
			EntityType: "alarm",
			EntityID:   id,
			UserID:     &userID,
			Details:    map[string]any{"resolution": req.Resolution, "bulk": true},
			IPAddress:  c.IP(),
		})
	}

	return c.JSON(fiber.Map{"message": "Alarms resolved successfully", "count": n})
}
