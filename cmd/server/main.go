// Package main - точка входа HTTP API сервера Unitex Hub.
//
// Сервер обслуживает REST API платформы:
// - Регистрация учеников и запись прогресса (уроки, тесты, проекты)
// - Лидерборд, траектория обучения, доска миссий
// - Лента уведомлений и настройки уведомлений
//
// Вся доменная логика живёт в слое application; main только собирает
// зависимости и управляет жизненным циклом процесса.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/unitex-school/unitex-hub/config"
	"github.com/unitex-school/unitex-hub/internal/application/command"
	"github.com/unitex-school/unitex-hub/internal/application/eventhandler"
	"github.com/unitex-school/unitex-hub/internal/application/query"
	"github.com/unitex-school/unitex-hub/internal/application/saga"
	"github.com/unitex-school/unitex-hub/internal/domain/leaderboard"
	"github.com/unitex-school/unitex-hub/internal/domain/notification"
	"github.com/unitex-school/unitex-hub/internal/domain/shared"
	"github.com/unitex-school/unitex-hub/internal/infrastructure/messaging"
	"github.com/unitex-school/unitex-hub/internal/infrastructure/persistence/postgres"
	"github.com/unitex-school/unitex-hub/internal/infrastructure/persistence/redis"
	"github.com/unitex-school/unitex-hub/internal/infrastructure/seed"
	"github.com/unitex-school/unitex-hub/internal/infrastructure/service"
	httpapi "github.com/unitex-school/unitex-hub/internal/interface/http"
	"github.com/unitex-school/unitex-hub/internal/interface/http/handlers"
	"github.com/unitex-school/unitex-hub/pkg/logger"
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
	log.Info("starting Unitex Hub API server",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

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
			// Лидерборд умеет работать напрямую из Postgres; без Redis
			// теряется только скорость, не функциональность.
			log.Warn("failed to connect to Redis, leaderboard caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			if cfg.Features.IsEnabled(config.FeatureLeaderboardCache, nil) {
				lbCache = redis.NewLeaderboardCache(redisCache)
			}
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	profiles := postgres.NewProfileRepository(dbConn)
	lessons := postgres.NewLessonRepository(dbConn)
	completions := postgres.NewCompletionRepository(dbConn)
	missions := postgres.NewMissionRepository(dbConn)
	badges := postgres.NewBadgeRepository(dbConn)
	notifications := postgres.NewNotificationRepository(dbConn)
	preferences := postgres.NewPreferencesRepository(dbConn)
	quizAttempts := postgres.NewQuizAttemptRepository(dbConn)
	projects := postgres.NewProjectRepository(dbConn)

	// Шаблоны миссий и бейджей сеются явно при старте, а не проверками
	// существования на каждом запросе.
	if err := seed.NewSeeder(missions, badges, log).Run(ctx); err != nil {
		return fmt.Errorf("failed to seed default data: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ EVENT BUS И ДИСПЕТЧЕРА
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	dispatcherConfig := messaging.DefaultDispatcherConfig(eventBus)
	dispatcherConfig.Logger = log
	dispatcher := messaging.NewDispatcher(dispatcherConfig)
	dispatcher.Use(messaging.RecoveryMiddleware(log))
	dispatcher.Use(messaging.LoggingMiddleware(log))

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ДОСТАВКА УВЕДОМЛЕНИЙ
	// ─────────────────────────────────────────────────────────────────────────
	var sender notification.Sender = service.NewInAppSender(log)
	var resilient *service.ResilientSender

	if cfg.Notifications.WebhookURL != "" && cfg.Features.IsEnabled(config.FeatureExperimentalWebhooks, nil) {
		log.Info("notification webhook enabled", "url", cfg.Notifications.WebhookURL)
		webhook := service.NewWebhookSender(cfg.Notifications.WebhookURL, cfg.Notifications.WebhookTimeout, log)
		resilient = service.NewResilientSender(webhook, log)
		sender = resilient
	}

	// Единые часы для всего application-слоя: сбросы миссий и отметки
	// времени считаются от одного источника.
	clock := shared.SystemClock{}

	notifier := eventhandler.NewNotifier(notifications, preferences, sender, log, clock)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. СБОРКА APPLICATION-СЛОЯ (CQRS)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application services...")
	progression := command.NewProgression(
		profiles, missions, badges, completions, eventBus, clock,
		command.ProgressionConfig{
			StreakDailyGate: cfg.Features.IsEnabled(config.FeatureProgressionStreakDailyGate, nil),
		},
	)
	streakFlow := saga.NewStreakMilestoneFlow(profiles, badges, progression, eventBus, log, nil)

	registerStudent := command.NewRegisterStudentHandler(profiles, preferences, eventBus, clock)
	completeLesson := command.NewCompleteLessonHandler(lessons, completions, progression, eventBus, clock)
	submitQuiz := command.NewSubmitQuizHandler(quizAttempts, progression, eventBus)
	submitProject := command.NewSubmitProjectHandler(projects, progression, eventBus)
	updatePreferences := command.NewUpdatePreferencesHandler(preferences, clock)

	getLeaderboard := query.NewGetLeaderboardHandler(profiles, lbCache, clock)
	getLearningPath := query.NewGetLearningPathHandler(lessons, completions, clock)
	getMissionBoard := query.NewGetMissionBoardHandler(missions, clock)
	getStudentProgress := query.NewGetStudentProgressHandler(profiles, badges, clock)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ПОДПИСКА ОБРАБОТЧИКОВ СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")
	subscriptions := []struct {
		eventType shared.EventType
		handler   shared.EventHandler
	}{
		{shared.EventXPGained, eventhandler.NewOnXPGainedHandler(lbCache, log)},
		{shared.EventLevelUp, eventhandler.NewOnLevelUpHandler(notifier, log)},
		{shared.EventBadgeAwarded, eventhandler.NewOnBadgeAwardedHandler(notifier, log)},
		{shared.EventMissionCompleted, eventhandler.NewOnMissionCompletedHandler(notifier, log)},
		{shared.EventStudentRegistered, eventhandler.NewOnStudentRegisteredHandler(notifier, log)},
		{shared.EventStreakUpdated, eventhandler.NewOnStreakUpdatedHandler(streakFlow, log)},
	}
	for _, sub := range subscriptions {
		if err := dispatcher.Register(sub.eventType, sub.handler); err != nil {
			return fmt.Errorf("failed to register handler for %s: %w", sub.eventType, err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP СЕРВЕР И HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("postgres", handlers.NewDatabaseCheck(dbConn))
	if redisCache != nil {
		health.AddCheck("redis", handlers.NewCacheCheck(redisCache))
	}
	if resilient != nil {
		health.AddCheck("notifications", handlers.NewSenderCheck(resilient))
	}

	serverConfig := httpapi.DefaultConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	serverConfig.ReadTimeout = cfg.Server.ReadTimeout
	serverConfig.WriteTimeout = cfg.Server.WriteTimeout
	serverConfig.IdleTimeout = cfg.Server.IdleTimeout
	serverConfig.EnableCORS = cfg.Server.EnableCORS
	serverConfig.AllowedOrigins = cfg.Server.AllowedOrigins
	serverConfig.EnableMetrics = cfg.Server.EnableMetrics
	serverConfig.RateLimitPerMinute = cfg.Server.RateLimitPerMinute
	serverConfig.APIKeyHeader = cfg.Server.APIKeyHeader
	serverConfig.APIKeys = cfg.Server.APIKeys

	httpLog := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})

	server := httpapi.NewServer(serverConfig, httpapi.Dependencies{
		RegisterStudentHandler:   registerStudent,
		CompleteLessonHandler:    completeLesson,
		SubmitQuizHandler:        submitQuiz,
		SubmitProjectHandler:     submitProject,
		UpdatePreferencesHandler: updatePreferences,

		GetLeaderboardHandler:     getLeaderboard,
		GetLearningPathHandler:    getLearningPath,
		GetMissionBoardHandler:    getMissionBoard,
		GetStudentProgressHandler: getStudentProgress,

		Notifications: notifications,
		Logger:        httpLog,
		HealthChecker: health,
	})

	errCh := server.StartAsync()
	log.Info("Unitex Hub API server is running", "address", server.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
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
