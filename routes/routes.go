package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"quicker-admin/config"
	apikeyHandlers "quicker-admin/controllers/apikey"
	"quicker-admin/controllers/auth"
	backupHandlers "quicker-admin/controllers/backup"
	memberHandlers "quicker-admin/controllers/member"
	notificationHandlers "quicker-admin/controllers/notification"
	"quicker-admin/controllers/server"
	statsHandlers "quicker-admin/controllers/stats"
	"quicker-admin/controllers/verify"
	"quicker-admin/logger"
	"quicker-admin/metrics"
	"quicker-admin/middleware"
	"quicker-admin/ratelimit"
	"quicker-admin/services/apiaccess"
	"quicker-admin/services/backup"
	"quicker-admin/services/credential"
	"quicker-admin/services/lockout"
	"quicker-admin/services/notification"
	"quicker-admin/services/registry"
	"quicker-admin/services/session"
	"quicker-admin/services/stats"
	"quicker-admin/services/verification"
)

// limiters returns the login and API limiters, backed by Redis when
// REDIS_ADDR is set and reachable.
func limiters(cfg *config.Config) (login, api ratelimit.Limiter, client *redis.Client) {
	if cfg.RedisAddr != "" {
		client = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := client.Ping(ctx).Err()
		if err == nil {
			logger.Success("Rate limiting backed by Redis at " + cfg.RedisAddr)
			return ratelimit.NewRedisLimiter(client, cfg.LoginRateLimit, cfg.LoginRateWindow, ""),
				ratelimit.NewRedisLimiter(client, cfg.APIRateLimit, cfg.APIRateWindow, ""),
				client
		}
		logger.Error("Redis unavailable, falling back to in-memory rate limiting", err)
		_ = client.Close()
	}
	return ratelimit.NewMemory(cfg.LoginRateLimit, cfg.LoginRateWindow),
		ratelimit.NewMemory(cfg.APIRateLimit, cfg.APIRateWindow),
		nil
}

// SetupRoutes wires services, middleware and controllers onto app. The
// returned function flushes the API log queue and releases connections.
func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) (func(), error) {
	credentials := credential.NewStore(db)
	if _, err := credentials.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminInitialPassword); err != nil {
		return nil, err
	}

	notifier := notification.NewService(db, notification.LogMailer{}, cfg.ExpiryNoticeDays)
	members := registry.New(db)
	members.Subscribe(notifier.OnExpiryChanged)

	guard := lockout.NewGuard(db, credentials, lockout.Policy{
		MaxAttempts:  cfg.LoginMaxAttempts,
		LockDuration: cfg.LoginLockDuration,
	})
	sessions := session.NewManager(cfg.SecretKey, cfg.SessionTTL)
	keys := apiaccess.NewGuard(db, notifier, cfg.APIUsageThreshold)
	backups, err := backup.NewService(db, cfg.BackupDir)
	if err != nil {
		return nil, err
	}

	asyncLogger := logger.NewAsyncLogger(keys)
	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	loginLimiter, apiLimiter, redisClient := limiters(cfg)

	promRegistry := prometheus.NewRegistry()
	metrics.Register(promRegistry)

	serverController := server.NewServerController(db)
	authController := auth.NewAuthController(guard, credentials, sessions, notifier, cfg.AdminUsername, cfg.IsProduction())
	memberController := memberHandlers.NewMemberController(members)
	keyController := apikeyHandlers.NewApiKeyController(keys)
	verifyController := verify.NewVerifyController(verification.NewEngine(db))
	backupController := backupHandlers.NewBackupController(backups, notifier)
	statsController := statsHandlers.NewStatsController(stats.NewService(db))
	notificationController := notificationHandlers.NewNotificationController(notifier)

	requireAdmin := middleware.RequireAdmin(sessions)

	app.Use(middleware.Metrics())

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	app.Get("/health", serverController.Health)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(promRegistry)))
	app.Post("/login", middleware.RateLimit(loginLimiter, middleware.ByIP("login:")), authController.Login)

	/*=============================================================================
	| Session Routes
	===============================================================================*/
	app.Post("/logout", requireAdmin, authController.Logout)
	app.Post("/change-password", requireAdmin, authController.ChangePassword)

	api := app.Group("/api")
	api.Get("/login-history", requireAdmin, authController.LoginHistory)

	/*=============================================================================
	| Member Routes
	===============================================================================*/
	memberGroup := api.Group("/members", requireAdmin)
	memberGroup.Get("/", memberController.List)
	memberGroup.Post("/", memberController.Create)
	memberGroup.Get("/:id", memberController.Get)
	memberGroup.Put("/:id", memberController.Update)
	memberGroup.Delete("/:id", memberController.Delete)

	api.Put("/cids/:cid", requireAdmin, memberController.ToggleCID)
	api.Get("/export", requireAdmin, memberController.Export)

	/*=============================================================================
	| API Key Routes
	===============================================================================*/
	keyGroup := api.Group("/keys", requireAdmin)
	keyGroup.Get("/", keyController.List)
	keyGroup.Post("/", keyController.Create)
	keyGroup.Delete("/:id", keyController.Deactivate)

	api.Get("/logs", requireAdmin, keyController.Logs)

	/*=============================================================================
	| External Verification Routes
	===============================================================================*/
	v1 := api.Group("/v1",
		middleware.RateLimit(apiLimiter, middleware.ByIP("api:")),
		middleware.RequireAPIKey(keys, asyncLogger),
	)
	v1.Post("/login", verifyController.PhoneLogin)
	v1.Post("/verify", verifyController.VerifyCID)

	/*=============================================================================
	| Backup Routes
	===============================================================================*/
	backupGroup := api.Group("/backups", requireAdmin)
	backupGroup.Get("/", backupController.List)
	backupGroup.Post("/", backupController.Create)
	backupGroup.Get("/:id/download", backupController.Download)
	backupGroup.Post("/:id/restore", backupController.Restore)
	backupGroup.Delete("/:id", backupController.Delete)

	scheduleGroup := api.Group("/backup-schedules", requireAdmin)
	scheduleGroup.Get("/", backupController.ListSchedules)
	scheduleGroup.Post("/", backupController.CreateSchedule)
	scheduleGroup.Put("/:id", backupController.UpdateSchedule)
	scheduleGroup.Delete("/:id", backupController.DeleteSchedule)

	/*=============================================================================
	| Statistics Routes
	===============================================================================*/
	statsGroup := api.Group("/stats", requireAdmin)
	statsGroup.Get("/overview", statsController.Overview)
	statsGroup.Get("/daily", statsController.Daily)
	statsGroup.Get("/api-usage", statsController.APIUsage)
	statsGroup.Get("/members/:id/activity", memberController.Activities)

	/*=============================================================================
	| Notification Routes
	===============================================================================*/
	notificationGroup := api.Group("/notifications", requireAdmin)
	notificationGroup.Get("/", notificationController.List)
	notificationGroup.Get("/unread-count", notificationController.UnreadCount)
	notificationGroup.Get("/settings", notificationController.Settings)
	notificationGroup.Post("/settings", notificationController.UpdateSettings)
	notificationGroup.Post("/read-all", notificationController.MarkAllRead)
	notificationGroup.Delete("/clear-all", notificationController.ClearAll)
	notificationGroup.Post("/:id/read", notificationController.MarkRead)
	notificationGroup.Delete("/:id", notificationController.Delete)

	shutdown := func() {
		asyncLogger.Close()
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Error("Failed to close Redis client", err)
			}
		}
	}
	return shutdown, nil
}
