package controllers

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"mentorbooking/internal/delivery/http/helpers"
	"mentorbooking/internal/delivery/http/middleware"
	"mentorbooking/internal/domain"
)

type AuthController struct {
	Logger      *slog.Logger
	Service     domain.AuthService
	Users       domain.UserService
	FrontendURL string
}

func NewAuthController(logger *slog.Logger, svc domain.AuthService, users domain.UserService, frontendURL string) *AuthController {
	return &AuthController{
		Logger:      logger,
		Service:     svc,
		Users:       users,
		FrontendURL: frontendURL,
	}
}

// LoginURLSuccessResponse is the success response envelope for GET /auth/google.
type LoginURLSuccessResponse struct {
	Data  map[string]string `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GoogleLogin godoc
// @Summary Start the Google OAuth login flow
// @Description Returns the Google consent page URL. The client redirects the browser there; Google calls back with a code.
// @Tags auth
// @Produce json
// @Success 200 {object} controllers.LoginURLSuccessResponse "data.url is the consent URL"
// @Router /auth/google [get]
func (c *AuthController) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{
		"url":   c.Service.LoginURL(state),
		"state": state,
	})
}

// GoogleCallback godoc
// @Summary Handle the Google OAuth callback
// @Description Exchanges the authorization code, upserts the user, and redirects to the frontend dashboard with a bearer token in the query string.
// @Tags auth
// @Param code query string true "Authorization code"
// @Success 302 {string} string "Redirect to FRONTEND_URL/dashboard?token=..."
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (missing code)"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway (provider failure)"
// @Router /auth/google/callback [get]
func (c *AuthController) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing code")
		return
	}
	token, _, err := c.Service.HandleCallback(r.Context(), code)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "login failed", "err", err)
		helpers.WriteJSONError(w, http.StatusBadGateway, helpers.ErrCodeBadGateway, "login failed")
		return
	}
	redirect := fmt.Sprintf("%s/dashboard?token=%s", c.FrontendURL, url.QueryEscape(token))
	http.Redirect(w, r, redirect, http.StatusFound)
}

// MeSuccessResponse is the success response envelope for GET /auth/me.
type MeSuccessResponse struct {
	Data  *domain.User      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Me godoc
// @Summary Get the authenticated principal
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.MeSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /auth/me [get]
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	user, err := c.Users.GetByEmail(r.Context(), identity.Email)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}
