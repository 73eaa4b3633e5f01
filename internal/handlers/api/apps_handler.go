package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/apps"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/audit"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/middlewares"
)

type createAppRequest struct {
	Name string `json:"name"`
}

type appResponse struct {
	AppID   uint   `json:"app_id"`
	AppName string `json:"app_name"`
}

type AppsHandler struct {
	appService AppService
}

func NewAppsHandler(appService AppService) *AppsHandler {
	return &AppsHandler{appService: appService}
}

func (h *AppsHandler) PostApp(ctx *fiber.Ctx) error {
	var req createAppRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "Invalid request body"),
		)
	}
	if req.Name == "" || len(req.Name) > 128 {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "Validation failed",
				fieldError("name", "Name is required and must be at max 128 characters long")),
		)
	}

	userID := middlewares.UserID(ctx)
	app, err := h.appService.CreateApplication(ctx.Context(), userID, req.Name)
	if errors.Is(err, apps.ErrAppNameTaken) {
		return ctx.Status(fiber.StatusConflict).JSON(
			NewErrorResponse(fiber.StatusConflict, "App with the same name already exists"),
		)
	}
	if err != nil {
		return err
	}

	audit.RecordAppCreated(ctx.Context(), audit.AppRecord{
		UserID:    userID,
		AppID:     app.ID,
		AppName:   app.AppName,
		IP:        ctx.IP(),
		UserAgent: string(ctx.Request().Header.UserAgent()),
	})

	return ctx.Status(fiber.StatusOK).JSON(NewDataResponse(appResponse{
		AppID:   app.ID,
		AppName: app.AppName,
	}))
}

func (h *AppsHandler) GetApps(ctx *fiber.Ctx) error {
	list, err := h.appService.ListUserApplications(ctx.Context(), middlewares.UserID(ctx))
	if err != nil {
		return err
	}
	resp := make([]appResponse, 0, len(list))
	for _, app := range list {
		resp = append(resp, appResponse{
			AppID:   app.ID,
			AppName: app.AppName,
		})
	}
	return ctx.Status(fiber.StatusOK).JSON(NewDataResponse(resp))
}
