package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/itcons/afisha/internal/domain"
	"github.com/itcons/afisha/internal/http/handlers"
	mw "github.com/itcons/afisha/internal/http/middleware"
	"github.com/itcons/afisha/internal/platform/mailer"
	"github.com/itcons/afisha/internal/repo/postgres"
	"github.com/itcons/afisha/internal/storage"
	"github.com/itcons/afisha/pkg/auth"
	"github.com/itcons/afisha/pkg/config"
	"github.com/itcons/afisha/pkg/events"
	"github.com/itcons/afisha/pkg/logger"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Optional infrastructure: the API runs without Redis (no rate
	// limiting) and without NATS (no event publishing).
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	var bus events.Publisher = events.Noop{}
	if cfg.NATS.URL != "" {
		natsBus, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		bus = natsBus
	}
	defer bus.Close()

	store, err := storage.NewMediaStore(cfg.Media.Root, cfg.Media.BaseURL)
	if err != nil {
		logger.Error("failed to init media storage", "error", err)
		os.Exit(1)
	}

	var mail mailer.Service
	switch {
	case cfg.Email.DevMode:
		mail = mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		mail = mailer.NewMailer(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	default:
		mail = mailer.NewSMTPMailer(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPFrom, cfg.Email.SMTPUser, cfg.Email.SMTPPass, cfg.Email.SMTPUseTLS)
	}

	accounts := postgres.NewAccountRepo(pool)
	organizers := postgres.NewOrganizerRepo(pool)
	verifications := postgres.NewVerificationRepo(pool)
	catalogRepo := postgres.NewCatalogRepo(pool)
	eventRepo := postgres.NewEventRepo(pool)
	imageRepo := postgres.NewImageRepo(pool)

	tokens := auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.Audience, cfg.Auth.TokenTTL)
	guard := mw.NewGuard(tokens, accounts)
	limiter := mw.NewLoginLimiter(rdb, cfg.Auth.LoginAttempts, cfg.Auth.LoginWindow)

	publicH := handlers.NewPublicHandler(eventRepo)
	authH := handlers.NewAuthHandler(accounts, tokens, guard, limiter.Middleware)
	adminH := handlers.NewAdminHandler(accounts, mail, bus)
	companyH := handlers.NewCompanyHandler(accounts, organizers)
	eventsH := handlers.NewEventsHandler(accounts, organizers, catalogRepo, eventRepo, store, bus)
	imagesH := handlers.NewImagesHandler(accounts, organizers, eventRepo, imageRepo, store, bus)
	verifH := handlers.NewVerificationHandler(accounts, organizers, verifications, mail, bus)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Recover)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.PreflightFallback)

	r.Get("/health", handlers.Health)
	r.Route("/api", func(api chi.Router) {
		publicH.Register(api)
		api.Route("/auth", func(ar chi.Router) {
			authH.Register(ar)
		})
		api.Route("/admin", func(ar chi.Router) {
			ar.Use(guard.RequireRole(domain.RoleAdmin))
			adminH.Register(ar)
			verifH.RegisterAdmin(ar)
		})
		api.Route("/organizer", func(or chi.Router) {
			or.Use(guard.RequireRole(domain.RoleOrganizer))
			companyH.Register(or)
			eventsH.Register(or)
			imagesH.Register(or)
			verifH.RegisterOrganizer(or)
		})
	})

	fileServer := http.FileServer(http.Dir(store.Root()))
	r.Handle("/media/*", http.StripPrefix("/media/", fileServer))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down api...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("api shutdown error", "error", err)
		}
	}()

	logger.Info("starting api", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("api server error", "error", err)
		os.Exit(1)
	}
}
