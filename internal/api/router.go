package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/ecosrev/ecosrev-api/internal/api/handler"
	"github.com/ecosrev/ecosrev-api/internal/api/middleware"
	"github.com/ecosrev/ecosrev-api/internal/core/domain"
	"github.com/ecosrev/ecosrev-api/internal/core/ports"
	_ "github.com/ecosrev/ecosrev-api/internal/docs"
	"github.com/ecosrev/ecosrev-api/internal/infrastructure/config"
	"github.com/ecosrev/ecosrev-api/internal/infrastructure/http/handlers"
)

const shutdownTimeout = 10 * time.Second

// Deps is everything the router needs to build its handlers.
type Deps struct {
	Config   *config.Config
	Log      zerolog.Logger
	Verifier ports.CredentialVerifier
	Users    ports.UserService
	Benefits ports.BenefitService
	History  ports.HistoryService
	Images   ports.ImageService
	// Health lists the backing services checked by /health/ready.
	Health []handlers.Dependency
	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, middleware.CredentialHeader},
	}))
	if d.Config.RequestTimeout > 0 {
		e.Use(echomiddleware.ContextTimeout(d.Config.RequestTimeout))
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: d.Registerer,
	}))

	auth := middleware.Auth(d.Verifier)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	// --- Operational routes (no auth required) ---
	probe := handlers.NewProbe(d.Config.Version, d.Health...)
	e.GET("/health", probe.Live)
	e.GET("/health/ready", probe.Ready)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/api/doc/*", echoSwagger.WrapHandler)

	apiGroup := e.Group("/api")
	apiGroup.GET("", handler.Root(d.Config.Version))

	// --- Benefits ---
	benefitHandler := handler.NewBenefitHandler(d.Benefits)
	benefits := apiGroup.Group("/beneficio", auth)
	benefits.GET("", benefitHandler.List)
	benefits.GET("/gt", benefitHandler.ListInRange)
	benefits.GET("/id/:id", benefitHandler.Get)
	benefits.GET("/nome/:filtro", benefitHandler.SearchByName)
	benefits.PUT("/resgate", benefitHandler.Redeem)
	benefits.POST("", benefitHandler.Create, adminOnly)
	benefits.PUT("", benefitHandler.Update, adminOnly)
	benefits.DELETE("/:id", benefitHandler.Delete, adminOnly)

	// --- Users ---
	userHandler := handler.NewUserHandler(d.Users)
	users := apiGroup.Group("/usuario")
	users.POST("", userHandler.Create, middleware.OptionalAuth(d.Verifier))
	users.POST("/login", userHandler.Login)
	users.POST("/forgot-password", userHandler.ForgotPassword)
	users.GET("/avatar/:id", userHandler.Avatar)
	users.GET("", userHandler.List, auth, adminOnly)
	users.GET("/id/:id", userHandler.Get, auth)
	users.GET("/pontos", userHandler.Points, auth)
	users.PUT("/pontos", userHandler.UpdateOwnPoints, auth)
	users.PUT("/pontosPut", userHandler.UpdatePoints, auth)
	users.DELETE("/:id", userHandler.Delete, auth, adminOnly)
	users.GET("/me", userHandler.Me, auth)
	users.PUT("/senha", userHandler.ChangePassword, auth)
	users.POST("/reset-password", userHandler.ResetPassword, auth)

	// --- History ---
	historyHandler := handler.NewHistoryHandler(d.History)
	history := apiGroup.Group("/hist", auth)
	history.POST("/pontos", historyHandler.RedeemCoupon)
	history.POST("/transacoes", historyHandler.RecordTransaction)
	history.GET("/:idUsuario", historyHandler.UserHistory)
	history.GET("", historyHandler.AllHistory)

	// --- Uploads ---
	uploadHandler := handler.NewUploadHandler(d.Images)
	uploads := apiGroup.Group("/upload")
	uploads.GET("/download-apk", uploadHandler.DownloadAPK)
	uploads.POST("/image", uploadHandler.Upload, auth)
	uploads.GET("/:id", uploadHandler.Get)
	uploads.DELETE("/:id", uploadHandler.Delete, auth)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// Run serves e until ctx is cancelled, then shuts it down gracefully. Under
// ENV=test it returns immediately without listening.
func Run(ctx context.Context, e *echo.Echo, cfg *config.Config, log zerolog.Logger) error {
	if cfg.IsTest() {
		log.Info().Msg("test environment, server not started")
		return nil
	}

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		var err error
		if cfg.TLS.Enabled() {
			log.Info().Str("addr", addr).Msg("listening with TLS")
			err = e.StartTLS(addr, cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			log.Info().Str("addr", addr).Msg("listening")
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
