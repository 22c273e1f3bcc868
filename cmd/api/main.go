package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/habitloop/signup-api/internal/auth"
	"github.com/habitloop/signup-api/internal/config"
	"github.com/habitloop/signup-api/internal/database"
	"github.com/habitloop/signup-api/internal/handler"
	middlewarepkg "github.com/habitloop/signup-api/internal/middleware"
	"github.com/habitloop/signup-api/internal/repository"
	"github.com/habitloop/signup-api/internal/router"
	"github.com/habitloop/signup-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// The persistence collaborator is constructed here, once, and injected
	// into the submission flow; nothing below holds hidden global state.
	var signupsRepo repository.SignupsRepository
	var usersRepo repository.UsersRepository

	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect database: %v", err)
		}
		defer pool.Close()

		signupsRepo = repository.NewPGXSignupsRepository(pool)
		usersRepo = repository.NewPGXUsersRepository(pool)
	} else {
		httpClient := &http.Client{Timeout: 10 * time.Second}
		signupsRepo = repository.NewRestSignupsRepository(httpClient, cfg.DataAPIURL, cfg.DataAPIKey)
		log.Printf("using hosted data API at %s; admin user management disabled", cfg.DataAPIURL)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	var validatorOpts []service.EmailValidatorOption
	if cfg.VerifyEmailMX {
		validatorOpts = append(validatorOpts, service.WithMXVerification())
	}
	signupService := service.NewSignupService(signupsRepo, service.NewEmailValidator(validatorOpts...))

	var analytics handler.EventPoster
	if cfg.AnalyticsBaseURL != "" {
		analytics = handler.NewAnalyticsClient(nil, cfg.AnalyticsBaseURL)
	}

	handlers := router.Handlers{
		Signup:      handler.NewSignupHandler(signupService, analytics),
		SignupAdmin: handler.NewSignupAdminHandler(signupService),
	}
	if usersRepo != nil {
		authService := service.NewAuthService(usersRepo, jwtManager)
		handlers.Auth = handler.NewAuthHandler(authService)
		handlers.Users = handler.NewUserAdminHandler(service.NewUserService(usersRepo))
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middlewarepkg.RequestID())
	e.Use(middlewarepkg.Logging())
	e.Use(echoMiddleware.Recover())

	router.Register(e, cfg, jwtManager, handlers)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
