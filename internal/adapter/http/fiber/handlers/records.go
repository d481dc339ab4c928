package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/agrovoz/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/agrovoz/internal/domain"
	"github.com/seu-repo/agrovoz/internal/ports"
	"github.com/seu-repo/agrovoz/internal/service/auth"
)

const maxPageSize = 500

type recordPtr[T any] interface {
	*T
	domain.Record
}

// RecordHandler exposes CRUD endpoints for one farm record type. Records of
// other farms are reported as not found.
type RecordHandler[T any, PT recordPtr[T]] struct {
	service ports.RecordService[T]
	log     *zap.Logger
}

func NewRecordHandler[T any, PT recordPtr[T]](service ports.RecordService[T], log *zap.Logger) *RecordHandler[T, PT] {
	return &RecordHandler[T, PT]{
		service: service,
		log:     log,
	}
}

// Register mounts the handler under path, e.g. "/animals".
func (h *RecordHandler[T, PT]) Register(r fiber.Router, path string, checker middleware.PermissionChecker) {
	read := middleware.RequirePermission(checker, auth.ResourceRecords, auth.ActionRead)
	write := middleware.RequirePermission(checker, auth.ResourceRecords, auth.ActionWrite)
	del := middleware.RequirePermission(checker, auth.ResourceRecords, auth.ActionDelete)

	r.Get(path, read, h.List)
	r.Post(path, write, h.Create)
	r.Get(path+"/:id", read, h.Get)
	r.Put(path+"/:id", write, h.Update)
	r.Delete(path+"/:id", del, h.Delete)
}

func (h *RecordHandler[T, PT]) List(c *fiber.Ctx) error {
	_, farmID := middleware.Identity(c)

	filter, err := parseListFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	list, err := h.service.List(c.UserContext(), farmID, filter)
	if err != nil {
		return err
	}
	if list == nil {
		list = []T{}
	}
	return c.JSON(list)
}

func (h *RecordHandler[T, PT]) Get(c *fiber.Ctx) error {
	rec, err := h.find(c)
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

func (h *RecordHandler[T, PT]) Create(c *fiber.Ctx) error {
	userID, farmID := middleware.Identity(c)

	rec := new(T)
	if err := c.BodyParser(rec); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	id, err := h.service.Create(c.UserContext(), rec, userID, farmID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"uuid": id, "record": rec})
}

// Update applies a partial update; zero fields in the body are left unchanged.
func (h *RecordHandler[T, PT]) Update(c *fiber.Ctx) error {
	userID, farmID := middleware.Identity(c)

	rec := new(T)
	if err := c.BodyParser(rec); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	PT(rec).Identify(c.Params("id"), farmID)

	if err := h.service.Update(c.UserContext(), rec, userID); err != nil {
		return err
	}

	updated, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(updated)
}

func (h *RecordHandler[T, PT]) Delete(c *fiber.Ctx) error {
	userID, _ := middleware.Identity(c)

	if _, err := h.find(c); err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), c.Params("id"), userID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *RecordHandler[T, PT]) find(c *fiber.Ctx) (*T, error) {
	_, farmID := middleware.Identity(c)

	rec, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return nil, err
	}
	if PT(rec).RecordFarmID() != farmID {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func parseListFilter(c *fiber.Ctx) (ports.ListFilter, error) {
	filter := ports.ListFilter{
		Status:     c.Query("status"),
		Type:       c.Query("type"),
		AnimalUUID: c.Query("animalUuid"),
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &filter.From}, {"to", &filter.To}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		t, err := parseQueryTime(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid %s: %q", p.name, raw)
		}
		*p.dst = &t
	}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("invalid limit: %q", raw)
		}
		filter.Limit = min(n, maxPageSize)
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("invalid offset: %q", raw)
		}
		filter.Offset = n
	}
	return filter, nil
}

func parseQueryTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}
