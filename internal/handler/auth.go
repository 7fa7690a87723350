package handler

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ivlev/authsvc/internal/domain"
	"github.com/ivlev/authsvc/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone" validate:"omitempty,e164"`
}

// RegisterRequest starts registration and dispatches a verification code.
func (h *AuthHandler) RegisterRequest(c echo.Context) error {
	var body registerRequest
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	if err := h.auth.RegisterRequest(c.Request().Context(), body.Email, body.Phone); err != nil {
		return err
	}
	return JSON(c, http.StatusOK, map[string]string{"message": "verification code sent"})
}

type registerConfirmRequest struct {
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone" validate:"omitempty,e164"`
	Code  string  `json:"code" validate:"required,len=6,numeric"`
}

// RegisterConfirm consumes the verification code and returns the first token pair.
func (h *AuthHandler) RegisterConfirm(c echo.Context) error {
	var body registerConfirmRequest
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	pair, err := h.auth.RegisterConfirm(c.Request().Context(), body.Email, body.Phone, body.Code)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, pair)
}

type emailLoginRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// EmailLoginRequest dispatches a login code to a registered email.
func (h *AuthHandler) EmailLoginRequest(c echo.Context) error {
	var body emailLoginRequest
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	if err := h.auth.EmailLoginRequest(c.Request().Context(), body.Email); err != nil {
		return err
	}
	return JSON(c, http.StatusOK, map[string]string{"message": "verification code sent"})
}

type emailLoginVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// EmailLoginVerify consumes a login code and returns a token pair.
func (h *AuthHandler) EmailLoginVerify(c echo.Context) error {
	var body emailLoginVerifyRequest
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	pair, err := h.auth.EmailLoginVerify(c.Request().Context(), body.Email, body.Code)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, pair)
}

// VKRedirect sends the user to VK's consent page.
func (h *AuthHandler) VKRedirect(c echo.Context) error {
	return h.oauthRedirect(c, domain.ProviderVK)
}

// VKCallback handles VK's OAuth callback.
func (h *AuthHandler) VKCallback(c echo.Context) error {
	return h.oauthCallback(c, domain.ProviderVK)
}

// YandexRedirect sends the user to Yandex's consent page.
func (h *AuthHandler) YandexRedirect(c echo.Context) error {
	return h.oauthRedirect(c, domain.ProviderYandex)
}

// YandexCallback handles Yandex's OAuth callback.
func (h *AuthHandler) YandexCallback(c echo.Context) error {
	return h.oauthCallback(c, domain.ProviderYandex)
}

func (h *AuthHandler) oauthRedirect(c echo.Context, name domain.Provider) error {
	state := generateState()
	c.SetCookie(&http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})

	url, err := h.auth.OAuthURL(name, state)
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusTemporaryRedirect, url)
}

func (h *AuthHandler) oauthCallback(c echo.Context, name domain.Provider) error {
	if err := validateOAuthState(c); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	code := c.QueryParam("code")
	if code == "" {
		return fmt.Errorf("%w: missing code parameter", domain.ErrInvalidInput)
	}

	user, pair, err := h.auth.OAuthCallback(c.Request().Context(), name, code)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, map[string]any{"user": user, "tokens": pair})
}

// TelegramLogin validates a Telegram login-widget payload.
func (h *AuthHandler) TelegramLogin(c echo.Context) error {
	var raw map[string]any
	if err := c.Bind(&raw); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}

	user, pair, err := h.auth.TelegramLogin(c.Request().Context(), stringifyPayload(raw))
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, map[string]any{"user": user, "tokens": pair})
}

type cmsLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CMSLogin authenticates an email+password credential pair.
func (h *AuthHandler) CMSLogin(c echo.Context) error {
	var body cmsLoginRequest
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	pair, err := h.auth.PasswordLogin(c.Request().Context(), body.Email, body.Password)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, pair)
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh rotates a refresh token and returns a new token pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var body refreshTokenRequest
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	pair, err := h.auth.Refresh(c.Request().Context(), body.RefreshToken)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, pair)
}

// Revoke invalidates a refresh token.
func (h *AuthHandler) Revoke(c echo.Context) error {
	var body refreshTokenRequest
	if err := c.Bind(&body); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	if err := h.auth.Revoke(c.Request().Context(), body.RefreshToken); err != nil {
		return err
	}
	return JSON(c, http.StatusOK, map[string]string{"message": "token revoked"})
}

// Me returns the currently authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := GetUserID(c)
	if !ok {
		return domain.ErrUnauthorized
	}

	user, err := h.auth.GetUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, user)
}

func generateState() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "fallback-state"
	}
	return base64.URLEncoding.EncodeToString(b)
}

func validateOAuthState(c echo.Context) error {
	cookie, err := c.Cookie("oauth_state")
	if err != nil {
		return fmt.Errorf("missing oauth_state cookie")
	}

	queryState := c.QueryParam("state")
	if queryState == "" || queryState != cookie.Value {
		return fmt.Errorf("state mismatch")
	}
	return nil
}

// stringifyPayload renders the widget's JSON values the way Telegram
// signed them: numbers without an exponent, integers without a
// fractional part.
func stringifyPayload(raw map[string]any) map[string]string {
	payload := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			payload[k] = val
		case float64:
			payload[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			payload[k] = strconv.FormatBool(val)
		default:
			payload[k] = fmt.Sprintf("%v", val)
		}
	}
	return payload
}
