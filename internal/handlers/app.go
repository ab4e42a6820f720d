package handlers

import (
	"githubActivity/internal/middleware"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// NewApp builds the fiber app for serve mode with request logging and the
// activity routes mounted.
func NewApp(h *HTTP, lg *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "github-activity",
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger(lg))
	h.Register(app)
	return app
}
