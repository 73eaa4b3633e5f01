package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/audit"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/middlewares/sessions"
	"github.com/harsh-haria/unified-event-analytics-engine/internal/oauth"
	"github.com/harsh-haria/unified-event-analytics-engine/params"
)

type loginStateClaims struct {
	Nonce    string `json:"nonce"`
	Redirect string `json:"redirect,omitempty"`
	jwt.RegisteredClaims
}

type userInfoResponse struct {
	UserID    uint   `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type AuthHandler struct {
	accountService AccountService
	oauthProviders map[string]oauth.OAuthProvider
	masterKey      string
}

func NewAuthHandler(accountService AccountService, oauthProviders []oauth.OAuthProvider, masterKey string) *AuthHandler {
	providerMap := make(map[string]oauth.OAuthProvider)
	for _, provider := range oauthProviders {
		providerMap[provider.Name()] = provider
	}
	return &AuthHandler{
		accountService: accountService,
		oauthProviders: providerMap,
		masterKey:      masterKey,
	}
}

// signLoginState wraps the post-login redirect target and a nonce in a
// short-lived signed token carried through the provider round trip.
func (h *AuthHandler) signLoginState(redirect string) (string, error) {
	claims := loginStateClaims{
		Nonce:    uuid.NewString(),
		Redirect: redirect,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(params.LoginStateExpiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.masterKey))
}

func (h *AuthHandler) verifyLoginState(state string) (*loginStateClaims, error) {
	var claims loginStateClaims
	token, err := jwt.ParseWithClaims(state, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(h.masterKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid login state")
	}
	return &claims, nil
}

// GetLogin redirects the browser to the external provider's consent page.
func (h *AuthHandler) GetLogin(ctx *fiber.Ctx) error {
	provider, ok := h.oauthProviders[ctx.Params("provider")]
	if !ok {
		return fiber.ErrNotFound
	}
	state, err := h.signLoginState(ctx.Query("redirect"))
	if err != nil {
		return err
	}
	return ctx.Redirect(provider.AuthCodeURL(state), fiber.StatusTemporaryRedirect)
}

// GetLoginCallback completes the provider round trip: it exchanges the code,
// binds the external identity to an internal user (provisioning a default
// application on first login) and rotates the session.
func (h *AuthHandler) GetLoginCallback(ctx *fiber.Ctx) error {
	provider, ok := h.oauthProviders[ctx.Params("provider")]
	if !ok {
		return fiber.ErrNotFound
	}

	state, err := h.verifyLoginState(ctx.Query("state"))
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(
			NewErrorResponse(fiber.StatusUnauthorized, "Invalid or expired login state"),
		)
	}

	oauthToken, err := provider.ExchangeToken(ctx.Context(), ctx.Query("code"))
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(
			NewErrorResponse(fiber.StatusUnauthorized, "Authentication failed"),
		)
	}

	profile, err := provider.GetUserInfo(ctx.Context(), oauthToken)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(
			NewErrorResponse(fiber.StatusUnauthorized, "Authentication failed"),
		)
	}

	user, firstLogin, err := h.accountService.LoginWithOAuth(ctx.Context(), profile)
	if err != nil {
		return err
	}

	if err := sessions.Reset(ctx, sessions.SessionData{
		IP:        ctx.IP(),
		UserID:    user.ID,
		LoginTime: time.Now(),
	}); err != nil {
		return err
	}

	audit.RecordLogin(ctx.Context(), audit.LoginRecord{
		UserID:    user.ID,
		FirstTime: firstLogin,
		IP:        ctx.IP(),
		UserAgent: string(ctx.Request().Header.UserAgent()),
	})

	if state.Redirect != "" {
		return ctx.Redirect(state.Redirect)
	}
	return ctx.Status(fiber.StatusOK).JSON(NewDataResponse(userInfoResponse{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}))
}

func (h *AuthHandler) GetLogout(ctx *fiber.Ctx) error {
	if err := sessions.Destroy(ctx); err != nil {
		return err
	}
	return ctx.SendStatus(fiber.StatusOK)
}

// GetProfile returns the logged-in owner's identity.
func (h *AuthHandler) GetProfile(ctx *fiber.Ctx) error {
	sess := sessions.Get(ctx)
	user, err := h.accountService.GetUserByID(ctx.Context(), sess.UserID)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusOK).JSON(NewDataResponse(userInfoResponse{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}))
}
