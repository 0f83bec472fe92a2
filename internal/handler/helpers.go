package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"kiosk-attendance-backend/internal/repository"
)

var validate = validator.New()

// validationErrors maps field name to the failed tag.
func validationErrors(err error) map[string]string {
	out := make(map[string]string)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
	}
	return out
}

// bind parses the JSON body into dst and validates it; on failure it has
// already written the 400 response and the returned error should be returned by the handler.
func bind(c *fiber.Ctx, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": validationErrors(err),
		})
	}
	return true, nil
}

func paramID(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func queryUint(c *fiber.Ctx, key string) uint {
	v, err := strconv.ParseUint(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

func queryBool(c *fiber.Ctx, key string) *bool {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &b
}

// queryDate accepts RFC3339 or YYYY-MM-DD; endOfDay moves a bare date to 23:59:59.
func queryDate(c *fiber.Ctx, key string, loc *time.Location, endOfDay bool) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t
}

func queryPage(c *fiber.Ctx) repository.Page {
	return repository.Page{Page: c.QueryInt("page", 1), Limit: c.QueryInt("limit", 50)}
}

func paginated(data interface{}, total int64, p repository.Page) fiber.Map {
	pages := (total + int64(p.Size()) - 1) / int64(p.Size())
	return fiber.Map{
		"data": data,
		"pagination": fiber.Map{
			"page":       p.Offset()/p.Size() + 1,
			"limit":      p.Size(),
			"total":      total,
			"totalPages": pages,
		},
	}
}

// storeError writes 404 for ErrNotFound, 503 for transient failures and 500 otherwise.
func storeError(c *fiber.Ctx, err error, notFound, failed string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": notFound})
	case repository.IsTransient(err):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Database temporarily unavailable"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": failed})
}

func dayBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}
