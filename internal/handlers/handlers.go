package handlers

import (
	"context"
	"errors"
	"time"

	"githubActivity/internal/events"
	"githubActivity/internal/github"
	"githubActivity/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

type HTTP struct {
	service events.Service
	loc     *time.Location
}

func NewHTTP(s events.Service, loc *time.Location) *HTTP {
	if loc == nil {
		loc = time.Local
	}
	return &HTTP{
		service: s,
		loc:     loc,
	}
}

// Register mounts the activity routes on app.
func (h *HTTP) Register(app *fiber.App) {
	app.Get("/users/:username/events", h.GetEvents)
	app.Get("/users/:username/history", h.GetHistory)
}

type eventView struct {
	model.Event
	Line string `json:"line"`
}

type reportView struct {
	Username string      `json:"username"`
	Filter   string      `json:"filter"`
	Cached   bool        `json:"cached"`
	Skipped  int         `json:"skipped"`
	Events   []eventView `json:"events"`
}

func (h *HTTP) GetEvents(c *fiber.Ctx) error {
	return h.serve(c, h.service.Activity)
}

func (h *HTTP) GetHistory(c *fiber.Ctx) error {
	return h.serve(c, h.service.History)
}

type loader func(ctx context.Context, username string, f model.Filter) (*events.Report, error)

func (h *HTTP) serve(c *fiber.Ctx, load loader) error {
	// fiber reuses the request buffer, the name outlives it in cache keys
	username := utils.CopyString(c.Params("username"))

	f, err := model.ParseFilter(c.Query("type"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	rep, err := load(c.UserContext(), username, f)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	view := reportView{
		Username: rep.Username,
		Filter:   string(rep.Filter),
		Cached:   rep.Cached,
		Skipped:  len(rep.Skipped),
		Events:   make([]eventView, 0, len(rep.Events)),
	}
	if view.Filter == "" {
		view.Filter = "all"
	}
	for _, e := range rep.Events {
		view.Events = append(view.Events, eventView{Event: e, Line: events.Format(e, h.loc)})
	}
	return c.JSON(view)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, github.ErrUserNotFound), errors.Is(err, events.ErrEmptyResult):
		return fiber.StatusNotFound
	case errors.Is(err, github.ErrRateLimited):
		return fiber.StatusTooManyRequests
	case errors.Is(err, github.ErrNetwork), errors.Is(err, github.ErrUnexpectedStatus):
		return fiber.StatusBadGateway
	case errors.Is(err, events.ErrHistoryDisabled):
		return fiber.StatusNotImplemented
	default:
		return fiber.StatusInternalServerError
	}
}
