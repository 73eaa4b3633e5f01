package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/analytics"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/middlewares"
	"github.com/harsh-haria/unified-event-analytics-engine/params"
	"github.com/spf13/cast"
)

type collectRequest struct {
	Event     string         `json:"event"`
	URL       string         `json:"url"`
	Referrer  string         `json:"referrer"`
	Device    string         `json:"device"`
	IPAddress string         `json:"ipAddress"`
	Timestamp string         `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
	UserID    string         `json:"user_id"`
}

type AnalyticsHandler struct {
	analyticsService AnalyticsService
	accessService    AccessService
}

func NewAnalyticsHandler(analyticsService AnalyticsService, accessService AccessService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		accessService:    accessService,
	}
}

// PostCollect ingests one event. The application the event is attributed to
// comes from the api key binding resolved by the auth middleware, never from
// the request body.
func (h *AnalyticsHandler) PostCollect(ctx *fiber.Ctx) error {
	var req collectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "Invalid request body"),
		)
	}

	errs, timestamp, metadata := validateCollectRequest(&req)
	if len(errs) > 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "Validation failed", errs...),
		)
	}

	err := h.analyticsService.SubmitEvent(ctx.Context(), analytics.SubmitEventInput{
		Event:     req.Event,
		URL:       req.URL,
		Referrer:  req.Referrer,
		Device:    req.Device,
		IPAddress: req.IPAddress,
		Timestamp: timestamp,
		Metadata:  metadata,
		EndUserID: req.UserID,
		AppID:     middlewares.AppID(ctx),
	})
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusOK).JSON(NewDataResponse(fiber.Map{
		"message": "Analytics data collected successfully",
	}))
}

// GetEventSummary aggregates events for the logged-in owner. A caller
// supplied app_id is honored only after an explicit ownership check;
// without one the summary spans every application the owner has.
func (h *AnalyticsHandler) GetEventSummary(ctx *fiber.Ctx) error {
	eventName := ctx.Query("event")
	if eventName == "" || len(eventName) > params.MaxEventNameLength {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "Validation failed",
				fieldError("event", "Event is required and must be at max 255 characters long")),
		)
	}

	var start, end *time.Time
	if raw := ctx.Query("startDate"); raw != "" {
		ts, err := parseDate(raw)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(
				NewErrorResponse(fiber.StatusBadRequest, "Validation failed",
					fieldError("startDate", "Start date must be a valid date string")),
			)
		}
		start = &ts
	}
	if raw := ctx.Query("endDate"); raw != "" {
		ts, err := parseDate(raw)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(
				NewErrorResponse(fiber.StatusBadRequest, "Validation failed",
					fieldError("endDate", "End date must be a valid date string")),
			)
		}
		end = &ts
	}

	userID := middlewares.UserID(ctx)
	var appID uint
	if raw := ctx.Query("app_id"); raw != "" {
		appID = cast.ToUint(raw)
		// a malformed id must not fall through to the owner-wide summary
		if appID == 0 {
			return ctx.Status(fiber.StatusBadRequest).JSON(
				NewErrorResponse(fiber.StatusBadRequest, "Validation failed",
					fieldError("app_id", "App ID must be a positive integer")),
			)
		}
	}
	if appID != 0 {
		granted, err := h.accessService.CheckAccess(ctx.Context(), userID, appID, "")
		if err != nil {
			return err
		}
		if !granted {
			return ctx.Status(fiber.StatusForbidden).JSON(
				NewErrorResponse(fiber.StatusForbidden, "You do not own this application"),
			)
		}
	}

	summary, err := h.analyticsService.EventSummary(ctx.Context(), eventName, start, end, appID, userID)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusOK).JSON(NewDataResponse(fiber.Map{
		"eventSummary": summary,
	}))
}

func (h *AnalyticsHandler) GetUserStats(ctx *fiber.Ctx) error {
	endUserID := ctx.Query("userId")
	if endUserID == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "User ID is required"),
		)
	}

	stats, err := h.analyticsService.GetUserStats(ctx.Context(), endUserID)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusOK).JSON(NewDataResponse(fiber.Map{
		"userStats": stats,
	}))
}
