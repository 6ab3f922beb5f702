// Package app wires configuration, storage and every HTTP handler into one
// http.Handler.
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/tvtrungg/covid-management-system/internal/analytics"
	"github.com/tvtrungg/covid-management-system/internal/auth"
	"github.com/tvtrungg/covid-management-system/internal/db"
	"github.com/tvtrungg/covid-management-system/internal/location"
	"github.com/tvtrungg/covid-management-system/internal/mailer"
	"github.com/tvtrungg/covid-management-system/internal/maintenance"
	"github.com/tvtrungg/covid-management-system/internal/media"
	"github.com/tvtrungg/covid-management-system/internal/notification"
	"github.com/tvtrungg/covid-management-system/internal/observability"
	"github.com/tvtrungg/covid-management-system/internal/order"
	"github.com/tvtrungg/covid-management-system/internal/pack"
	"github.com/tvtrungg/covid-management-system/internal/payment"
	"github.com/tvtrungg/covid-management-system/internal/person"
	"github.com/tvtrungg/covid-management-system/internal/product"
	"github.com/tvtrungg/covid-management-system/internal/ratelimit"
	"github.com/tvtrungg/covid-management-system/internal/search"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Close   func() error
}

func Build(ctx context.Context, options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	logger := observability.NewLogger()

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	jwtRefreshSecret, err := mustEnv("JWT_REFRESH_SECRET")
	if err != nil {
		return nil, err
	}

	if err := observability.InitSentry(os.Getenv("SENTRY_DSN"), envOrDefault("APP_ENV", "development")); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(envIntOrDefault("DB_MAX_OPEN_CONNS", 10))
	database.SetMaxIdleConns(envIntOrDefault("DB_MAX_IDLE_CONNS", 5))
	database.SetConnMaxLifetime(envMinutesOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30))
	database.SetConnMaxIdleTime(envMinutesOrDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10))

	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(ctx, database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	tokens := auth.NewTokenManager(jwtSecret, jwtRefreshSecret).WithTTL(
		envMinutesOrDefault("ACCESS_TOKEN_TTL_MINUTES", 15),
		envHoursOrDefault("REFRESH_TOKEN_TTL_HOURS", 168),
	)

	var resetMailer auth.ResetMailer
	if apiKey := strings.TrimSpace(os.Getenv("RESEND_API_KEY")); apiKey != "" {
		resetMailer = mailer.NewResendMailer(
			apiKey,
			envOrDefault("MAIL_FROM", "no-reply@covid-management.local"),
			envOrDefault("APP_URL", "http://localhost:3000"),
		)
	} else {
		resetMailer = mailer.NewLogMailer(logger)
	}

	authRepo := auth.NewRepository(database)
	authService := auth.NewService(authRepo, tokens, resetMailer).WithSecurityConfig(
		envIntOrDefault("LOGIN_MAX_ATTEMPTS", 5),
		envMinutesOrDefault("LOGIN_LOCK_MINUTES", 30),
		envHoursOrDefault("SESSION_TTL_HOURS", 168),
	)

	if err := authService.BootstrapAdmin(ctx, os.Getenv("ADMIN_USERNAME"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	limiter := ratelimit.NewLimiter(database).WithLogger(logger)
	authHandler := auth.NewHandler(authService, envBoolOrDefault("SECURE_COOKIES", true)).
		WithResetLimit(func(ctx context.Context, username string) (bool, error) {
			result, err := limiter.Check(ctx, ratelimit.ResetPolicy, strings.ToLower(username))
			if err != nil {
				return true, err
			}
			return result.Allowed, nil
		})

	authMW := auth.NewMiddleware(tokens, authRepo)

	notificationRepo := notification.NewRepository(database)
	notificationHandler := notification.NewHandler(notificationRepo)
	notifier := notification.NewNotifier(notificationRepo)

	locationRepo := location.NewRepository(database)
	locationHandler := location.NewHandler(location.NewService(locationRepo))

	personRepo := person.NewRepository(database)
	personHandler := person.NewHandler(person.NewService(personRepo).WithNotifier(notifier))

	productRepo := product.NewRepository(database)
	productHandler := product.NewHandler(productRepo)

	packRepo := pack.NewRepository(database)
	packHandler := pack.NewHandler(pack.NewService(packRepo))

	orderRepo := order.NewRepository(database)
	orderHandler := order.NewHandler(order.NewService(orderRepo, packRepo, personRepo).WithNotifier(notifier))

	paymentRepo := payment.NewRepository(database)
	paymentHandler := payment.NewHandler(payment.NewService(paymentRepo, personRepo).WithNotifier(notifier))

	searchHandler := search.NewHandler(search.NewService(database))

	analyticsHandler := analytics.NewHandler(analytics.NewService(database, paymentRepo))

	var uploader media.ImageUploader
	if cloudinaryURL := strings.TrimSpace(os.Getenv("CLOUDINARY_URL")); cloudinaryURL != "" {
		uploader, err = media.NewCloudinary(cloudinaryURL)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("init cloudinary: %w", err)
		}
	}
	mediaHandler := media.NewHandler(uploader)

	cleanupHandler := maintenance.NewCleanupHandler(
		authRepo,
		limiter,
		logger,
		os.Getenv("CRON_SECRET"),
		envDaysOrDefault("SESSION_RETENTION_DAYS", 14),
		envHoursOrDefault("RATE_LIMIT_RETENTION_HOURS", 24),
		envIntOrDefault("CLEANUP_BATCH_SIZE", 500),
	)

	loginLimit := limiter.Middleware(ratelimit.LoginPolicy, ratelimit.ByClientIP)
	apiLimit := limiter.Middleware(ratelimit.APIPolicy, ratelimit.ByUserID)

	// protected: auth + per-user API limit + a permission check.
	protected := func(p auth.Permission, h http.HandlerFunc) http.Handler {
		return authMW.Require(apiLimit(authMW.RequirePermission(p)(h)))
	}
	// authed: auth + per-user API limit, no permission beyond a valid session.
	authed := func(h http.HandlerFunc) http.Handler {
		return authMW.Require(apiLimit(h))
	}

	mux := http.NewServeMux()

	mux.Handle("POST /api/auth/login", loginLimit(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.HandleFunc("POST /api/auth/forgot-password", authHandler.ForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", authHandler.ResetPassword)
	mux.HandleFunc("POST /api/auth/set-password", authHandler.SetPassword)

	mux.Handle("POST /api/user/change-password", authed(authHandler.ChangePassword))
	mux.Handle("GET /api/user/profile", authed(personHandler.Profile))
	mux.Handle("GET /api/user/packages", protected(auth.PermPackagesView, packHandler.List))
	mux.Handle("GET /api/user/orders", protected(auth.PermOrdersView, orderHandler.ListOwn))
	mux.Handle("POST /api/user/orders", protected(auth.PermOrdersCreate, orderHandler.Place))
	mux.Handle("GET /api/user/orders/{id}", protected(auth.PermOrdersView, orderHandler.GetOwn))
	mux.Handle("GET /api/user/payment/account", protected(auth.PermPaymentsView, paymentHandler.Account))
	mux.Handle("POST /api/user/payment/deposit", protected(auth.PermPaymentsCreate, paymentHandler.Deposit))
	mux.Handle("POST /api/user/payment/pay", protected(auth.PermPaymentsCreate, paymentHandler.Pay))
	mux.Handle("GET /api/user/payment/transactions", protected(auth.PermPaymentsView, paymentHandler.Transactions))

	mux.Handle("POST /api/admin/users", protected(auth.PermUsersCreate, authHandler.CreateUser))
	mux.Handle("GET /api/admin/managers", protected(auth.PermUsersView, authHandler.ListManagers))
	mux.Handle("PUT /api/admin/managers/{id}/toggle-status", protected(auth.PermUsersUpdate, authHandler.ToggleStatus))
	mux.Handle("GET /api/admin/locations", protected(auth.PermLocationsView, locationHandler.ListTreatmentLocations))
	mux.Handle("POST /api/admin/locations", protected(auth.PermLocationsCreate, locationHandler.CreateTreatmentLocation))
	mux.Handle("PUT /api/admin/locations/{id}", protected(auth.PermLocationsUpdate, locationHandler.UpdateTreatmentLocation))
	mux.Handle("DELETE /api/admin/locations/{id}", protected(auth.PermLocationsDelete, locationHandler.DeleteTreatmentLocation))

	mux.Handle("GET /api/manager/locations/provinces", authed(locationHandler.ListProvinces))
	mux.Handle("GET /api/manager/locations/districts", authed(locationHandler.ListDistricts))
	mux.Handle("GET /api/manager/locations/wards", authed(locationHandler.ListWards))
	mux.Handle("GET /api/manager/covid-people", protected(auth.PermCovidPeopleView, personHandler.List))
	mux.Handle("POST /api/manager/covid-people", protected(auth.PermCovidPeopleCreate, personHandler.Create))
	mux.Handle("PUT /api/manager/covid-people/{id}", protected(auth.PermCovidPeopleUpdate, personHandler.Update))
	mux.Handle("GET /api/manager/products", protected(auth.PermProductsView, productHandler.List))
	mux.Handle("POST /api/manager/products", protected(auth.PermProductsCreate, productHandler.Create))
	mux.Handle("PUT /api/manager/products/{id}", protected(auth.PermProductsUpdate, productHandler.Update))
	mux.Handle("DELETE /api/manager/products/{id}", protected(auth.PermProductsDelete, productHandler.Delete))
	mux.Handle("GET /api/manager/packages", protected(auth.PermPackagesView, packHandler.List))
	mux.Handle("POST /api/manager/packages", protected(auth.PermPackagesCreate, packHandler.Create))
	mux.Handle("GET /api/manager/packages/{id}", protected(auth.PermPackagesView, packHandler.Get))
	mux.Handle("PUT /api/manager/packages/{id}", protected(auth.PermPackagesUpdate, packHandler.Update))
	mux.Handle("DELETE /api/manager/packages/{id}", protected(auth.PermPackagesDelete, packHandler.Delete))
	mux.Handle("GET /api/manager/statistics", protected(auth.PermStatisticsView, analyticsHandler.Statistics))

	mux.Handle("GET /api/analytics", protected(auth.PermReportsView, analyticsHandler.Dashboard))
	mux.Handle("GET /api/analytics/export", protected(auth.PermReportsExport, analyticsHandler.Export))

	mux.Handle("GET /api/search", authed(searchHandler.Search))

	mux.Handle("GET /api/notifications", authed(notificationHandler.List))
	mux.Handle("PUT /api/notifications/{id}/read", authed(notificationHandler.MarkRead))
	mux.Handle("PUT /api/notifications/read-all", authed(notificationHandler.MarkAllRead))
	mux.Handle("GET /api/notifications/preferences", authed(notificationHandler.GetPreferences))
	mux.Handle("PUT /api/notifications/preferences", authed(notificationHandler.UpdatePreferences))

	mux.Handle("POST /api/media/upload", protected(auth.PermProductsUpdate, mediaHandler.Upload))

	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("GET /health", healthHandler(database))

	corsWrapper := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(envOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
	})

	handler := observability.RecoverMiddleware(logger,
		observability.RequestLoggingMiddleware(logger, corsWrapper.Handler(mux)))

	return &Runtime{
		Handler: handler,
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
