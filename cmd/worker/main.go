// Package main - точка входа для фоновых процессов (Worker) Unitex Hub.
//
// Worker отвечает за периодические задачи:
// - Полный пересбор кеша лидерборда из Postgres
// - Повторная доставка упавших уведомлений и очистка старых
// - Воскресный дайджест прогресса за неделю
//
// Worker не обслуживает HTTP-трафик: он делит с API только базу,
// Redis и конвейер доставки уведомлений.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unitex-school/unitex-hub/config"
	"github.com/unitex-school/unitex-hub/internal/application/eventhandler"
	"github.com/unitex-school/unitex-hub/internal/domain/leaderboard"
	"github.com/unitex-school/unitex-hub/internal/domain/notification"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
	"github.com/unitex-school/unitex-hub/internal/infrastructure/messaging"
	"github.com/unitex-school/unitex-hub/internal/infrastructure/persistence/postgres"
	"github.com/unitex-school/unitex-hub/internal/infrastructure/persistence/redis"
	"github.com/unitex-school/unitex-hub/internal/infrastructure/scheduler"
	"github.com/unitex-school/unitex-hub/internal/infrastructure/scheduler/jobs"
	"github.com/unitex-school/unitex-hub/internal/infrastructure/service"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Unitex Hub worker",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler is disabled via configuration, nothing to do")
		return nil
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	if cfg.Database.AutoMigrate {
		log.Info("checking database migrations...")
		if err := postgres.NewMigrator(dbConn).Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var lbCache leaderboard.Cache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...", "addr", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port))
		redisCache, err = redis.NewCache(buildRedisConfig(cfg.Redis))
		if err != nil {
			log.Warn("failed to connect to Redis, leaderboard rebuild disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			lbCache = redis.NewLeaderboardCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	profiles := postgres.NewProfileRepository(dbConn)
	completions := postgres.NewCompletionRepository(dbConn)
	notifications := postgres.NewNotificationRepository(dbConn)
	preferences := postgres.NewPreferencesRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS И ДОСТАВКА УВЕДОМЛЕНИЙ
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() { _ = eventBus.Close() }()

	var sender notification.Sender = service.NewInAppSender(log)
	if cfg.Notifications.WebhookURL != "" && cfg.Features.IsEnabled(config.FeatureExperimentalWebhooks, nil) {
		log.Info("notification webhook enabled", "url", cfg.Notifications.WebhookURL)
		webhook := service.NewWebhookSender(cfg.Notifications.WebhookURL, cfg.Notifications.WebhookTimeout, log)
		sender = service.NewResilientSender(webhook, log)
	}

	clock := shared.SystemClock{}
	notifier := eventhandler.NewNotifier(notifications, preferences, sender, log, clock)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ПЛАНИРОВЩИК И ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing scheduler...")
	schedConfig := scheduler.DefaultSchedulerConfig()
	schedConfig.Logger = log
	if cfg.App.Location != nil {
		schedConfig.Timezone = cfg.App.Location
	}
	sched := scheduler.NewScheduler(schedConfig)

	if lbCache != nil {
		rebuild := jobs.NewRebuildLeaderboardJob(profiles, lbCache, eventBus, log,
			jobs.RebuildLeaderboardConfig{Timeout: cfg.Scheduler.JobTimeout})
		if err := sched.Register(rebuild, scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval)); err != nil {
			return fmt.Errorf("failed to register rebuild job: %w", err)
		}
	}

	retrySchedule, err := scheduler.ParseCronExpression(cfg.Scheduler.RetryNotificationsCron)
	if err != nil {
		return fmt.Errorf("invalid retry notifications cron %q: %w", cfg.Scheduler.RetryNotificationsCron, err)
	}
	retryConfig := jobs.DefaultRetryNotificationsConfig()
	retryConfig.RetentionDays = cfg.Notifications.RetentionDays
	retryConfig.Timeout = cfg.Scheduler.JobTimeout
	retryJob := jobs.NewRetryNotificationsJob(notifications, sender, clock, log, retryConfig)
	if err := sched.Register(retryJob, retrySchedule); err != nil {
		return fmt.Errorf("failed to register retry job: %w", err)
	}

	if cfg.Features.IsEnabled(config.FeatureNotifyWeeklyDigest, nil) {
		digestSchedule, err := scheduler.ParseCronExpression(cfg.Scheduler.WeeklyDigestCron)
		if err != nil {
			return fmt.Errorf("invalid weekly digest cron %q: %w", cfg.Scheduler.WeeklyDigestCron, err)
		}
		digestJob := jobs.NewWeeklyDigestJob(profiles, completions, lbCache, notifier, log,
			jobs.DefaultWeeklyDigestConfig())
		if err := sched.Register(digestJob, digestSchedule); err != nil {
			return fmt.Errorf("failed to register digest job: %w", err)
		}
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	for _, job := range sched.ListJobs() {
		log.Info("job scheduled",
			"job", job.Name,
			"schedule", job.Schedule,
			"next_run", job.NextRun.Format(time.RFC3339),
		)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("Unitex Hub worker is running", "timezone", cfg.App.Timezone)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	if err := sched.Stop(); err != nil {
		return fmt.Errorf("scheduler stop failed: %w", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Observability.LogLevel),
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// parseLogLevel переводит строку конфигурации в уровень slog.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildRedisConfig собирает конфигурацию клиента Redis.
func buildRedisConfig(cfg config.RedisConfig) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = cfg.Host
	rc.Port = cfg.Port
	rc.Password = cfg.Password
	rc.DB = cfg.DB
	rc.PoolSize = cfg.PoolSize
	rc.MinIdleConns = cfg.MinIdleConns
	rc.DialTimeout = cfg.DialTimeout
	rc.ReadTimeout = cfg.ReadTimeout
	rc.WriteTimeout = cfg.WriteTimeout
	return rc
}
