package middlewares

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/auth"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/common"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/middlewares/sessions"
)

const (
	ApiKeyHeader = "X-API-KEY"

	localUserID  = "user_id"
	localAppID   = "app_id"
	localRateKey = "rate_key"
)

// ApiKeyValidator resolves a presented plaintext key to its application and
// owner. Satisfied by *auth.Keyring.
type ApiKeyValidator interface {
	ValidateApiKey(ctx context.Context, plaintext string) (*auth.KeyDetails, error)
}

// UserID returns the resolved owner identity for the request, zero when the
// request carries no valid credential.
func UserID(ctx *fiber.Ctx) uint {
	id, _ := ctx.Locals(localUserID).(uint)
	return id
}

// AppID returns the application bound to the request's api key, zero for
// session-authenticated requests.
func AppID(ctx *fiber.Ctx) uint {
	id, _ := ctx.Locals(localAppID).(uint)
	return id
}

// RateKey identifies the credential for rate limiting purposes.
func RateKey(ctx *fiber.Ctx) string {
	key, _ := ctx.Locals(localRateKey).(string)
	return key
}

func unauthorized(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": "Unauthorized",
	})
}

// RequireUser admits only requests with a logged-in session and injects the
// session identity into the request locals.
func RequireUser() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		sess := sessions.Get(ctx)
		if !sess.IsLoggedIn() {
			return unauthorized(ctx)
		}
		ctx.Locals(localUserID, sess.UserID)
		ctx.Locals(localRateKey, "user:"+strconv.FormatUint(uint64(sess.UserID), 10))
		return ctx.Next()
	}
}

// RequireApiKey admits only requests with a valid X-API-KEY header and
// injects the key's resolved (user, application) pair into the request
// locals. The application id always comes from the key's own binding.
func RequireApiKey(validator ApiKeyValidator) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		plaintext := ctx.Get(ApiKeyHeader)
		if plaintext == "" {
			return unauthorized(ctx)
		}

		details, err := validator.ValidateApiKey(ctx.Context(), plaintext)
		if errors.Is(err, auth.ErrKeyNotFound) {
			return unauthorized(ctx)
		}
		if err != nil {
			return err
		}

		ctx.Locals(localUserID, details.OwnerID)
		ctx.Locals(localAppID, details.AppID)
		ctx.Locals(localRateKey, "key:"+common.Sha256Hex(plaintext)[:16])
		return ctx.Next()
	}
}
