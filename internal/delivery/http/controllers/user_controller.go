package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"mentorbooking/internal/delivery/http/helpers"
	"mentorbooking/internal/delivery/http/middleware"
	"mentorbooking/internal/domain"
)

type UserController struct {
	Logger  *slog.Logger
	Service domain.UserService
}

func NewUserController(logger *slog.Logger, svc domain.UserService) *UserController {
	return &UserController{
		Logger:  logger,
		Service: svc,
	}
}

// SetupProfileRequest is the request body for POST /users/setup.
type SetupProfileRequest struct {
	Role        string `json:"role"`
	StartupName string `json:"startup_name"`
	Expertise   string `json:"expertise"`
	LinkedIn    string `json:"linkedin"`
}

// Validate implements helpers.Validator.
func (r *SetupProfileRequest) Validate() []string {
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	if r.Role != string(domain.RoleMentor) && r.Role != string(domain.RoleFounder) {
		return []string{"role must be mentor or founder"}
	}
	return nil
}

// SetupProfileSuccessResponse is the success response envelope for POST /users/setup.
type SetupProfileSuccessResponse struct {
	Data  *SetupProfileResult `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// SetupProfileResult bundles the updated user with a re-issued token.
type SetupProfileResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// SetupProfile godoc
// @Summary Complete or update the user profile
// @Description Sets role, startup name, expertise, and LinkedIn for the authenticated user, then returns the updated user plus a freshly issued token.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.SetupProfileRequest true "Profile fields"
// @Success 200 {object} controllers.SetupProfileSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /users/setup [post]
func (c *UserController) SetupProfile(w http.ResponseWriter, r *http.Request) {
	var req SetupProfileRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	update := domain.ProfileUpdate{
		Role:        domain.Role(req.Role),
		StartupName: req.StartupName,
		Expertise:   req.Expertise,
		LinkedIn:    req.LinkedIn,
	}
	user, token, err := c.Service.SetupProfile(r.Context(), identity.Email, update)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "user not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, &SetupProfileResult{User: user, Token: token})
}
