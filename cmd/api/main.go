package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"rentmate/internal/config"
	"rentmate/internal/database"
	"rentmate/internal/events"
	"rentmate/internal/middleware"
	"rentmate/internal/modules/admin"
	"rentmate/internal/modules/auth"
	"rentmate/internal/modules/booking"
	"rentmate/internal/modules/catalog"
	"rentmate/internal/modules/chat"
	"rentmate/internal/modules/system"
	"rentmate/internal/notify"
	jwtsvc "rentmate/internal/pkg/jwt"
	"rentmate/internal/reminder"
	"rentmate/internal/repository"
	"rentmate/internal/verification"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("level=warn msg=dotenv_load_failed err=%v", err)
	}

	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal(err)
	}
	defer sqlDB.Close()

	defaults, err := config.LoadPlatformDefaults(cfg.SettingsFile)
	if err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	mitraRepo := repository.NewMitraRepository(db)
	talentRepo := repository.NewTalentRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentCodeRepo := repository.NewPaymentCodeRepository(db)
	chatRepo := repository.NewChatRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	blockedRepo := repository.NewBlockedTalentRepository(db)
	reportRepo := repository.NewReportRepository(db)

	if _, err := settingsRepo.EnsureDefaults(ctx, defaults.Settings()); err != nil {
		log.Fatal(err)
	}

	bus := events.NewBus()
	var publisher events.Publisher = bus
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		bridge := events.NewRedisBridge(bus, rdb, cfg.RedisChannel)
		publisher = bridge
		go func() {
			if err := bridge.Run(ctx); err != nil {
				log.Printf("level=error msg=redis_bridge_stopped err=%v", err)
			}
		}()
	}

	backend := verification.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	notifier := notify.New(cfg.SlackWebhook)
	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	authService := auth.NewService(userRepo, mitraRepo, j, backend)
	authService.SetLogger(log.Printf)
	authHandler := auth.NewHandler(authService)

	catalogService := catalog.NewService(talentRepo, blockedRepo, settingsRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	bookingService := booking.NewService(booking.Deps{
		Bookings:     bookingRepo,
		Talents:      talentRepo,
		PaymentCodes: paymentCodeRepo,
		Blocked:      blockedRepo,
		Users:        userRepo,
		Mitras:       mitraRepo,
		Settings:     settingsRepo,
		Events:       publisher,
		Notifier:     notifier,
	}, booking.Config{Location: cfg.Location, MaxProofBytes: cfg.MaxProofBytes})
	bookingService.SetLogger(log.Printf)
	bookingHandler := booking.NewHandler(bookingService)

	chatService := chat.NewService(chatRepo, bookingRepo, mitraRepo, publisher)
	chatService.SetLogger(log.Printf)
	hub := chat.NewHub()
	chatEvents, unsubscribe := bus.Subscribe()
	go hub.Run(ctx, chatEvents)
	chatHandler := chat.NewHandler(chatService, hub, splitOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")))

	adminService := admin.NewService(admin.Deps{
		Bookings: bookingRepo,
		Chats:    chatService,
		Users:    userRepo,
		Mitras:   mitraRepo,
		Talents:  talentRepo,
		Settings: settingsRepo,
		Blocked:  blockedRepo,
		Reports:  reportRepo,
		Backend:  backend,
		Events:   publisher,
	})
	adminService.SetLogger(log.Printf)
	adminHandler := admin.NewHandler(adminService)

	systemService := system.NewService(sqlDB.PingContext, backend, bus, mitraRepo)
	systemHandler := system.NewHandler(systemService)

	reminders := reminder.New(reminder.Deps{
		Bookings: bookingRepo,
		Users:    userRepo,
		Mitras:   mitraRepo,
		Sender:   backend,
	}, cfg.ReminderLead)
	reminders.SetLogger(log.Printf)
	remindersDone, err := reminders.Start(ctx, cfg.ReminderCron)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.AppEnv == "prod" || cfg.AppEnv == "production" || cfg.AppEnv == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS(os.Getenv("CORS_ALLOWED_ORIGINS")))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)
		catalogHandler.RegisterRoutes(v1)
		bookingHandler.RegisterPublicRoutes(v1)
		systemHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(j))
		{
			authHandler.RegisterProtectedRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
			chatHandler.RegisterRoutes(protected)
			adminHandler.RegisterReportRoutes(protected)
			systemHandler.RegisterRoutes(protected)

			mitraGroup := protected.Group("/mitra")
			mitraGroup.Use(middleware.MitraOnly())
			bookingHandler.RegisterMitraRoutes(mitraGroup)

			adminGroup := protected.Group("/admin")
			adminGroup.Use(middleware.AdminOnly())
			adminHandler.RegisterRoutes(adminGroup)
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv.RegisterOnShutdown(systemHandler.Close)

	go func() {
		log.Printf("level=info msg=http_listen addr=%s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("level=info msg=shutdown_started")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("level=error msg=http_shutdown_failed err=%v", err)
	}
	unsubscribe()
	hub.Close()
	<-remindersDone
	log.Printf("level=info msg=shutdown_complete")
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
