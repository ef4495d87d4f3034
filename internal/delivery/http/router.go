package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, handler *Handler, gatherer prometheus.Gatherer) {
	// Health check
	app.Get("/health", handler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Intake wizard
		api.Post("/intake", handler.StartIntake)
		api.Get("/intake/:id", handler.GetIntake)
		api.Delete("/intake/:id", handler.DiscardIntake)
		api.Patch("/intake/:id/fields", handler.SetFields)
		api.Post("/intake/:id/advance", handler.Advance)
		api.Post("/intake/:id/retreat", handler.Retreat)
		api.Post("/intake/:id/chillers/:unit/toggle", handler.ToggleChiller)
		api.Post("/intake/:id/submit", handler.Submit)

		// Results view
		api.Get("/results/:token", handler.GetResults)
		api.Get("/weather", handler.GetWeather)

		// History
		api.Get("/history/weather", handler.GetHistoricalWeather)
		api.Get("/history/predictions", handler.GetPredictionHistory)
	}
}

// ErrorHandler renders every error as {"error": true, "message": ...}
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
