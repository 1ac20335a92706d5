package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"mentorbooking/config"
	"mentorbooking/internal/adapters/auth"
	"mentorbooking/internal/adapters/email"
	"mentorbooking/internal/adapters/googleauth"
	"mentorbooking/internal/adapters/googlecal"
	delivery "mentorbooking/internal/delivery/http"
	"mentorbooking/internal/delivery/http/controllers"
	"mentorbooking/internal/delivery/http/middleware"
	"mentorbooking/internal/repository/postgres"
	"mentorbooking/internal/services"
)

const tokenExpiry = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := config.NewLogger(cfg.Environment)

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to reach database: %v", err)
	}
	if err := postgres.Migrate(context.Background(), db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	userRepo := postgres.NewUserRepository(db)
	slotRepo := postgres.NewSlotRepository(db)
	directory := postgres.NewDirectoryLookup(db)

	tokens := auth.NewJWT(cfg.JWTSecret)
	oauth := googleauth.NewClient(nil, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI)
	calendar := googlecal.NewClient(nil, cfg.GoogleClientID, cfg.GoogleClientSecret)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:        cfg.EmailProvider,
		FromAddress:     cfg.EmailFromAddress,
		FromName:        cfg.EmailFromName,
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		log.Fatalf("Failed to create mailer: %v", err)
	}
	notifier := services.NewNotificationService(mailer, email.NewTemplateRenderer())

	authService := services.NewAuthService(oauth, userRepo, tokens, tokenExpiry, cfg.MentorEmails)
	userService := services.NewUserService(userRepo, tokens, tokenExpiry)
	slotService := services.NewSlotService(slotRepo, calendar, directory, notifier, logger)

	authController := controllers.NewAuthController(logger, authService, userService, cfg.FrontendURL)
	userController := controllers.NewUserController(logger, userService)
	slotController := controllers.NewSlotController(logger, slotService)

	mux := delivery.NewRouter(logger, tokens, userRepo, authController, userController, slotController)
	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, mux))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
