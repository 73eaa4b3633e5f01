package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/audit"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/auth"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/common"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/middlewares"
	"github.com/harsh-haria/unified-event-analytics-engine/params"
	"github.com/spf13/cast"
)

type issuedKeyResponse struct {
	Key    string `json:"key"`
	Expiry string `json:"expiry"`
}

type revokeKeyRequest struct {
	Key string `json:"key"`
}

type KeysHandler struct {
	keyring       Keyring
	accessService AccessService
}

func NewKeysHandler(keyring Keyring, accessService AccessService) *KeysHandler {
	return &KeysHandler{
		keyring:       keyring,
		accessService: accessService,
	}
}

// requireAppAccess resolves the app_id route param and checks that the
// session user owns it.
func (h *KeysHandler) requireAppAccess(ctx *fiber.Ctx) (uint, error) {
	appID := cast.ToUint(ctx.Params("app_id"))
	if appID == 0 {
		return 0, ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "App ID is required"),
		)
	}
	granted, err := h.accessService.CheckAccess(ctx.Context(), middlewares.UserID(ctx), appID, "")
	if err != nil {
		return 0, err
	}
	if !granted {
		return 0, ctx.Status(fiber.StatusForbidden).JSON(
			NewErrorResponse(fiber.StatusForbidden, "You do not own this application"),
		)
	}
	return appID, nil
}

// PostAppKey issues a new api key for an owned application. The plaintext in
// the response is shown exactly once and cannot be retrieved again.
func (h *KeysHandler) PostAppKey(ctx *fiber.Ctx) error {
	appID, err := h.requireAppAccess(ctx)
	if appID == 0 {
		return err
	}

	plaintext, expiry, err := h.keyring.GenerateApiKey(ctx.Context(), appID)
	if err != nil {
		return err
	}

	audit.RecordKeyIssued(ctx.Context(), audit.KeyRecord{
		UserID:    middlewares.UserID(ctx),
		AppID:     appID,
		KeyDigest: common.Sha256Hex(plaintext),
		IP:        ctx.IP(),
		UserAgent: string(ctx.Request().Header.UserAgent()),
	})

	return ctx.Status(fiber.StatusOK).JSON(NewDataResponse(issuedKeyResponse{
		Key:    plaintext,
		Expiry: expiry.Format(params.MySQLDateTimeLayout),
	}))
}

func (h *KeysHandler) GetAppKeys(ctx *fiber.Ctx) error {
	appID, err := h.requireAppAccess(ctx)
	if appID == 0 {
		return err
	}

	keys, err := h.keyring.ListActiveKeys(ctx.Context(), appID)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusOK).JSON(NewDataResponse(fiber.Map{
		"keys": keys,
	}))
}

// DeleteKey revokes a key owned by the session user. Revoking a key that is
// unknown, expired or already revoked is a no-op, not an error.
func (h *KeysHandler) DeleteKey(ctx *fiber.Ctx) error {
	var req revokeKeyRequest
	if err := ctx.BodyParser(&req); err != nil || req.Key == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse(fiber.StatusBadRequest, "Key is required"),
		)
	}

	details, err := h.keyring.ResolveKeyApp(ctx.Context(), req.Key)
	if errors.Is(err, auth.ErrKeyNotFound) {
		return ctx.Status(fiber.StatusOK).JSON(NewDataResponse(fiber.Map{
			"message": "Api key revoked",
		}))
	}
	if err != nil {
		return err
	}

	userID := middlewares.UserID(ctx)
	if details.OwnerID != userID {
		return ctx.Status(fiber.StatusForbidden).JSON(
			NewErrorResponse(fiber.StatusForbidden, "You do not own this api key"),
		)
	}

	if err := h.keyring.RevokeApiKey(ctx.Context(), req.Key); err != nil {
		return err
	}

	audit.RecordKeyRevoked(ctx.Context(), audit.KeyRecord{
		UserID:    userID,
		AppID:     details.AppID,
		IP:        ctx.IP(),
		UserAgent: string(ctx.Request().Header.UserAgent()),
	})

	return ctx.Status(fiber.StatusOK).JSON(NewDataResponse(fiber.Map{
		"message": "Api key revoked",
	}))
}
