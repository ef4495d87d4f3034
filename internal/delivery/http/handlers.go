package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/chillerops/backend/internal/domain"
	"github.com/chillerops/backend/internal/intake"
	"github.com/chillerops/backend/internal/service"
	"github.com/chillerops/backend/pkg/utils"
)

// Handler contains all HTTP handlers
type Handler struct {
	intakeSvc  *service.IntakeService
	resultsSvc *service.ResultsService
	repo       service.DataRepository
}

// NewHandler creates a new handler
func NewHandler(intakeSvc *service.IntakeService, resultsSvc *service.ResultsService, repo service.DataRepository) *Handler {
	return &Handler{
		intakeSvc:  intakeSvc,
		resultsSvc: resultsSvc,
		repo:       repo,
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	database := "ok"
	if err := h.repo.Health(c.Context()); err != nil {
		database = "unavailable"
	}
	return c.JSON(fiber.Map{
		"status":   "ok",
		"service":  "chillerops-backend",
		"version":  "1.0.0",
		"database": database,
	})
}

// StartIntake opens a new wizard session
func (h *Handler) StartIntake(c *fiber.Ctx) error {
	var req struct {
		Prefill bool `json:"prefill"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}

	id, state := h.intakeSvc.Start(req.Prefill)
	return c.Status(fiber.StatusCreated).JSON(sessionView(id, state))
}

// GetIntake returns the current session view
func (h *Handler) GetIntake(c *fiber.Ctx) error {
	id := c.Params("id")
	state, err := h.intakeSvc.State(id)
	if err != nil {
		return h.fail(c, id, state, err)
	}
	return c.JSON(sessionView(id, state))
}

// DiscardIntake closes a session
func (h *Handler) DiscardIntake(c *fiber.Ctx) error {
	if !h.intakeSvc.Discard(c.Params("id")) {
		return fiber.NewError(fiber.StatusNotFound, "Intake session not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetFields applies a batch of field edits. Values may be strings or numbers.
func (h *Handler) SetFields(c *fiber.Ctx) error {
	id := c.Params("id")

	var raw map[string]any
	if err := c.BodyParser(&raw); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	fields := make(map[string]string, len(raw))
	for name, v := range raw {
		switch val := v.(type) {
		case string:
			fields[name] = val
		case float64:
			fields[name] = utils.FormatNumber(val)
		case nil:
			fields[name] = ""
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Field "+name+" must be a string or a number")
		}
	}

	state, err := h.intakeSvc.Set(id, fields)
	if err != nil {
		return h.fail(c, id, state, err)
	}
	return c.JSON(sessionView(id, state))
}

// Advance moves the wizard forward
func (h *Handler) Advance(c *fiber.Ctx) error {
	id := c.Params("id")
	state, err := h.intakeSvc.Advance(id)
	if err != nil {
		return h.fail(c, id, state, err)
	}
	return c.JSON(sessionView(id, state))
}

// Retreat moves the wizard back
func (h *Handler) Retreat(c *fiber.Ctx) error {
	id := c.Params("id")
	state, err := h.intakeSvc.Retreat(id)
	if err != nil {
		return h.fail(c, id, state, err)
	}
	return c.JSON(sessionView(id, state))
}

// ToggleChiller flips one chiller unit
func (h *Handler) ToggleChiller(c *fiber.Ctx) error {
	id := c.Params("id")
	state, err := h.intakeSvc.Toggle(id, strings.ToUpper(c.Params("unit")))
	if err != nil {
		return h.fail(c, id, state, err)
	}
	return c.JSON(sessionView(id, state))
}

// Submit sends the record for prediction and returns where to collect the
// results view
func (h *Handler) Submit(c *fiber.Ctx) error {
	id := c.Params("id")
	res, err := h.intakeSvc.Submit(c.UserContext(), id)
	if err != nil {
		return h.fail(c, id, intake.State{}, err)
	}

	c.Location(res.Ticket.Location)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"predictions": res.Predictions,
			"city":        res.City,
			"token":       res.Ticket.Token,
			"location":    res.Ticket.Location,
		},
	})
}

// GetResults renders the results view for a relayed transfer
func (h *Handler) GetResults(c *fiber.Ctx) error {
	view := h.resultsSvc.Render(c.UserContext(), c.Params("token"))
	if view.State == domain.ViewNoPredictions {
		return c.Status(fiber.StatusNotFound).JSON(view)
	}
	return c.JSON(view)
}

// GetWeather returns current weather data for a city
func (h *Handler) GetWeather(c *fiber.Ctx) error {
	weather, err := h.resultsSvc.GetWeather(c.UserContext(), c.Query("city"))
	if err != nil {
		if errors.Is(err, service.ErrCityRequired) {
			return fiber.NewError(fiber.StatusBadRequest, "Query parameter city is required")
		}
		return fiber.NewError(fiber.StatusBadGateway, service.MsgWeatherFailure)
	}

	return c.JSON(domain.WeatherResponse{
		Data:    weather,
		Success: true,
	})
}

// GetHistoricalWeather returns weather history for a city
func (h *Handler) GetHistoricalWeather(c *fiber.Ctx) error {
	city := strings.TrimSpace(c.Query("city"))
	if city == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Query parameter city is required")
	}

	hours := c.QueryInt("hours", 24)
	if hours < 1 || hours > 720 { // max 30 days
		hours = 24
	}

	data, err := h.resultsSvc.WeatherHistory(c.UserContext(), city, hours)
	if err != nil {
		zap.L().Error("weather history query failed", zap.String("city", city), zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch weather history")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

// GetPredictionHistory returns the newest prediction audit entries
func (h *Handler) GetPredictionHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	data, err := h.resultsSvc.PredictionHistory(c.UserContext(), limit)
	if err != nil {
		zap.L().Error("prediction history query failed", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch prediction history")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

func sessionView(id string, state intake.State) fiber.Map {
	return fiber.Map{
		"success": true,
		"id":      id,
		"data":    state,
	}
}

// fail maps intake and service errors onto HTTP responses. Validation
// refusals carry the field messages and the unchanged session view.
func (h *Handler) fail(c *fiber.Ctx, id string, state intake.State, err error) error {
	var (
		verr *intake.ValidationError
		terr *service.TransportError
	)
	switch {
	case errors.As(err, &verr):
		body := fiber.Map{
			"error":   true,
			"message": "Please fix the highlighted fields",
			"step":    verr.Step,
			"fields":  verr.Fields,
		}
		if state.StepCount > 0 {
			body["id"] = id
			body["data"] = state
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(body)
	case errors.As(err, &terr):
		return fiber.NewError(fiber.StatusBadGateway, "Error submitting form: "+terr.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Intake session not found")
	case errors.Is(err, intake.ErrSubmissionInFlight):
		return fiber.NewError(fiber.StatusConflict, "A submission is already in progress")
	case errors.Is(err, intake.ErrNotSubmittable):
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Submit is only available on the last step")
	case errors.Is(err, intake.ErrUnknownField):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, intake.ErrUnknownChiller):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	zap.L().Error("intake request failed", zap.String("session", id), zap.Error(err))
	return fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
}
