package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"mentorbooking/internal/delivery/http/controllers"
	"mentorbooking/internal/delivery/http/middleware"
	"mentorbooking/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(
	logger *slog.Logger,
	verifier domain.TokenVerifier,
	users domain.UserRepository,
	authController *controllers.AuthController,
	userController *controllers.UserController,
	slotController *controllers.SlotController,
) *http.ServeMux {
	mux := http.NewServeMux()
	withAuth := middleware.RequireIdentity(verifier, users, logger)

	// Auth
	mux.HandleFunc("GET /auth/google", authController.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", authController.GoogleCallback)
	mux.HandleFunc("GET /auth/me", withAuth(authController.Me))

	// Profile
	mux.HandleFunc("POST /users/setup", withAuth(userController.SetupProfile))

	// Slots
	mux.HandleFunc("GET /slots", withAuth(slotController.ListSlots))
	mux.HandleFunc("POST /slots", withAuth(slotController.CreateSlot))
	mux.HandleFunc("POST /slots/{slotID}/book", withAuth(slotController.BookSlot))
	mux.HandleFunc("DELETE /slots/{slotID}", withAuth(slotController.CancelSlot))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
