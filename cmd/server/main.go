package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ivlev/authsvc/internal/config"
	"github.com/ivlev/authsvc/internal/db"
	"github.com/ivlev/authsvc/internal/handler"
	"github.com/ivlev/authsvc/internal/notify"
	"github.com/ivlev/authsvc/internal/provider"
	"github.com/ivlev/authsvc/internal/repository"
	"github.com/ivlev/authsvc/internal/service"
	"github.com/ivlev/authsvc/internal/token"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	conn, err := sqlx.Connect("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer conn.Close()

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Migrate(context.Background(), conn); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	slog.Info("database ready")

	userRepo := repository.NewUserRepository(conn)
	codeRepo := repository.NewCodeRepository(conn)
	tokenRepo := repository.NewTokenRepository(conn)
	roleRepo := repository.NewRoleRepository(conn)

	signer := token.NewSigner(cfg.JWTSecret, nil)
	codes := service.NewCodeService(codeRepo, cfg.EmailCodeTTL, cfg.PhoneCodeTTL, nil)
	ledger := service.NewRefreshLedger(tokenRepo, signer, cfg.RefreshTokenTTL, nil)

	oauth := provider.NewRegistry(
		provider.NewVK(cfg.VKClientID, cfg.VKClientSecret, cfg.VKRedirectURI),
		provider.NewYandex(cfg.YandexClientID, cfg.YandexClientSecret, cfg.YandexRedirectURI),
	)

	authSvc := service.NewAuthService(
		userRepo,
		codes,
		ledger,
		signer,
		oauth,
		provider.NewTelegram(cfg.TelegramBotToken),
		notify.NewLogDispatcher("email"),
		notify.NewLogDispatcher("sms"),
		cfg.AccessTokenTTL,
	)
	roleSvc := service.NewRoleService(roleRepo, userRepo)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(roleSvc)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewAppValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(handler.RequestLogger())

	e.GET("/health", func(c echo.Context) error {
		return handler.JSON(c, http.StatusOK, map[string]string{"status": "ok"})
	})

	auth := e.Group("/auth")
	auth.POST("/register/request", authHandler.RegisterRequest)
	auth.POST("/register/confirm", authHandler.RegisterConfirm)
	auth.POST("/email/login/request", authHandler.EmailLoginRequest)
	auth.POST("/email/login/verify", authHandler.EmailLoginVerify)
	auth.GET("/vk", authHandler.VKRedirect)
	auth.GET("/vk/callback", authHandler.VKCallback)
	auth.GET("/yandex", authHandler.YandexRedirect)
	auth.GET("/yandex/callback", authHandler.YandexCallback)
	auth.POST("/telegram", authHandler.TelegramLogin)
	auth.POST("/cms/login", authHandler.CMSLogin)
	auth.POST("/token/refresh", authHandler.Refresh)
	auth.POST("/token/revoke", authHandler.Revoke)
	auth.GET("/me", authHandler.Me, handler.JWTAuth(authSvc))

	users := e.Group("/users")
	users.POST("/roles", userHandler.CreateRole, handler.JWTAuth(authSvc))
	users.POST("/roles/assign", userHandler.AssignRole, handler.JWTAuth(authSvc))
	users.GET("/:id", userHandler.GetUser, handler.JWTAuth(authSvc))

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port)
		errCh <- e.Start(fmt.Sprintf(":%d", cfg.Port))
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
