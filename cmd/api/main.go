package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"pixelpanic/internal/core/cache"
	"pixelpanic/internal/core/config"
	"pixelpanic/internal/core/database"
	"pixelpanic/internal/core/logger"
	"pixelpanic/internal/core/server"
	adminhandler "pixelpanic/internal/features/admin/handler"
	adminservice "pixelpanic/internal/features/admin/service"
	authadapter "pixelpanic/internal/features/auth/adapters"
	authdomain "pixelpanic/internal/features/auth/domain"
	authhandler "pixelpanic/internal/features/auth/handler"
	"pixelpanic/internal/features/auth/middleware"
	authports "pixelpanic/internal/features/auth/ports"
	authservice "pixelpanic/internal/features/auth/service"
	checkoutadapter "pixelpanic/internal/features/checkout/adapters"
	checkoutdomain "pixelpanic/internal/features/checkout/domain"
	checkouthandler "pixelpanic/internal/features/checkout/handler"
	checkoutservice "pixelpanic/internal/features/checkout/service"
	techadapter "pixelpanic/internal/features/technicians/adapters"
	techhandler "pixelpanic/internal/features/technicians/handler"
	techservice "pixelpanic/internal/features/technicians/service"

	"go.uber.org/zap"
)

// @title PixelPanic API
// @version 1.0
// @description Doorstep phone repair: OTP login, checkout, admin back office and the technician portal.
// @contact.name PixelPanic Engineering
// @contact.email engineering@pixelpanic.in
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	db, err := database.NewConnection(ctx, cfg.Database)
	if err != nil {
		l.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		l.Fatal("Database migration failed", zap.Error(err))
	}
	l.Info("Database ready")

	// Redis
	redisCache, err := cache.NewRedisAdapter(cfg.Redis.URL)
	if err != nil {
		l.Fatal("Failed to create Redis cache", zap.Error(err))
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		l.Fatal("Redis Health Check Failed", zap.Error(err))
	}
	l.Info("Redis connection verified")

	var sms authports.SMSSender = authadapter.LogSender{Reveal: cfg.IsDevelopment()}
	if cfg.SMS.GatewayURL != "" {
		sms = authadapter.NewGatewaySender(cfg.SMS.GatewayURL, cfg.SMS.APIKey)
	} else {
		l.Warn("SMS_GATEWAY_URL not set, text messages are only logged")
	}

	// Auth
	users := authadapter.NewPostgresUserRepository(db)
	authSvc := authservice.NewAuthService(
		users,
		authadapter.NewRedisSessionStore(redisCache),
		authadapter.NewRedisChallengeStore(redisCache),
		sms,
		authservice.Options{
			OTPTTL:         cfg.Auth.OTPTTL(),
			OTPMaxAttempts: cfg.Auth.OTPMaxAttempts,
			SessionTTL:     cfg.Auth.SessionTTL(),
		},
	)
	authHdl := authhandler.NewAuthHandler(authSvc, authhandler.CookieSettings{
		Name:   cfg.Auth.SessionCookieName,
		TTL:    cfg.Auth.SessionTTL(),
		Secure: !cfg.IsDevelopment(),
	})

	var resolver authports.Resolver = authSvc
	if role := cfg.DevBypassRole(); role != "" {
		dev, err := authservice.NewDevResolver(cfg.Environment, role)
		if err != nil {
			l.Fatal("Invalid DEV_AUTH_ROLE", zap.Error(err))
		}
		resolver = dev
		l.Warn("Development auth bypass active", zap.String("role", role))
	}

	// Checkout
	orders := checkoutadapter.NewPostgresOrderRepository(db)
	checkoutSvc := checkoutservice.NewCheckoutService(
		orders,
		checkoutadapter.NewPostgresCouponRepository(db),
		checkoutadapter.NewStubPaymentGateway(),
		checkoutdomain.OrderNumberScheme(cfg.Checkout.OrderNumberScheme),
	)
	checkoutHdl := checkouthandler.NewCheckoutHandler(checkoutSvc)

	// Technicians
	inviteHdl := techhandler.NewInviteHandler(
		techservice.NewInviteService(techadapter.NewPostgresInviteRepository(db), cfg.Auth.InviteTTL()),
	)
	gigHdl := techhandler.NewGigHandler(techservice.NewGigService(
		orders,
		techadapter.NewPostgresCompletionRepository(db),
		techadapter.NewRedisCodeStore(redisCache),
		sms,
		techadapter.NewLocalPhotoStorage(cfg.Uploads.Dir),
		techservice.Options{},
	))

	// Admin
	adminHdl := adminhandler.NewAdminHandler(adminservice.NewAdminService(orders, users))

	srv := server.New(cfg)
	app := srv.App

	app.Use(middleware.Session(resolver, cfg.Auth.SessionCookieName))
	app.Use(middleware.AdminGate(cfg.Auth.AdminPrefixes(), cfg.Auth.AdminSignInPath))
	app.Use("/technician", middleware.RequireRole(authdomain.RoleTechnician, "/"))

	// Register Routes
	app.Get("/api/auth/me", authHdl.Me)
	app.Post("/api/auth/send-otp", authHdl.SendOTP)
	app.Post("/api/auth/verify-otp", authHdl.VerifyOTP)
	app.Post("/api/auth/logout", authHdl.Logout)

	app.Post("/api/checkout/create-order", checkoutHdl.CreateOrder)
	app.Post("/api/checkout/apply-coupon", checkoutHdl.ApplyCoupon)
	app.Get("/api/orders/:id", checkoutHdl.GetOrder)

	app.Get("/api/technicians/invites/:token", inviteHdl.Lookup)
	app.Post("/api/technicians/invites/:token/complete", inviteHdl.Accept)

	tech := app.Group("/api/technicians", middleware.RequireAPIRole(authdomain.RoleTechnician))
	tech.Get("/me/gigs", gigHdl.ListMine)
	tech.Post("/gigs/:id/status", gigHdl.ChangeStatus)
	tech.Post("/gigs/:id/resend-code", gigHdl.ResendCode)
	tech.Post("/gigs/:id/complete", gigHdl.Complete)
	tech.Post("/upload", gigHdl.Upload)

	admin := app.Group("/admin", middleware.RequireAPIRole(authdomain.RoleAdmin))
	admin.Get("/technician-invites", inviteHdl.List)
	admin.Post("/technician-invites", inviteHdl.Create)
	admin.Post("/technician-invites/:id/revoke", inviteHdl.Revoke)
	admin.Get("/orders", adminHdl.ListOrders)
	admin.Post("/orders/:id/assign", adminHdl.AssignTechnician)
	admin.Post("/orders/:id/cancel", adminHdl.Cancel)

	go func() {
		if err := srv.Run(); err != nil {
			l.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	l.Info("Shutting down")
	if err := srv.Shutdown(10 * time.Second); err != nil {
		l.Error("Graceful shutdown failed", zap.Error(err))
	}
}
