package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"taskbot/config"
	"taskbot/internal/init/database"

	categoryDb "taskbot/internal/modules/category/repo/database"
	"taskbot/internal/modules/conversation/engine"
	"taskbot/internal/modules/event"
	"taskbot/internal/modules/scheduler"
	taskDb "taskbot/internal/modules/task/repo/database"
	taskUC "taskbot/internal/modules/task/usecase"
	"taskbot/internal/modules/user"
	userDb "taskbot/internal/modules/user/repo/database"
	"taskbot/internal/transport/telegram"
)

type App struct {
	Storage   *database.Storage
	Users     user.Repo
	Engine    *engine.Engine
	Scheduler *scheduler.ReminderScheduler
	Transport *telegram.Transport
	Cron      *cron.Cron
	Log       *slog.Logger
	Cfg       *config.Config
}

func NewApp(cfg *config.Config, log *slog.Logger) (*App, error) {
	storage, err := database.NewStorage(cfg.DbConfig)
	if err != nil {
		return nil, fmt.Errorf("db init failed: %w", err)
	}

	taskDBImpl := taskDb.NewTaskDatabase(storage.Db, log)
	userDBImpl := userDb.NewUserDatabase(storage.Db, log, taskDBImpl)
	categoryDBImpl := categoryDb.NewCategoryDatabase(storage.Db, log)
	taskUseCaseImpl := taskUC.NewTaskUseCase(taskDBImpl, log)

	bus := event.NewBus(log)
	eng := engine.New(userDBImpl, taskUseCaseImpl, taskDBImpl, categoryDBImpl, bus, log)
	transport := telegram.New(cfg.BotConfig.Token, cfg.BotConfig.PollTimeout, eng, log)

	cronScheduler := cron.New()
	reminders := scheduler.New(cronScheduler, userDBImpl, taskUseCaseImpl, transport, log)

	// Перерисовка списка после коммита уходит в очередь транспорта, чтобы
	// в чате она шла после подтверждающего сообщения.
	bus.Subscribe(event.TasksChanged, event.HandlerFunc(func(ctx context.Context, e event.Event) {
		reply, err := eng.RenderTaskList(e.UserID, e.ChatID)
		if err != nil {
			log.Error("failed to render task list", slog.Int64("userID", e.UserID), "error", err)
			return
		}
		transport.Queue(e.ChatID, reply)
	}))
	bus.Subscribe(event.SettingsChanged, event.HandlerFunc(func(ctx context.Context, e event.Event) {
		if err := reminders.Reschedule(e.UserID); err != nil {
			log.Error("failed to reschedule reminder", slog.Int64("userID", e.UserID), "error", err)
		}
	}))

	sessionTTL := cfg.BotConfig.SessionTTL
	_, err = cronScheduler.AddFunc("*/10 * * * *", func() {
		if n := eng.ExpireSessions(sessionTTL); n > 0 {
			log.Debug("expired conversation sessions", slog.Int("count", n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("cron init failed: %w", err)
	}

	return &App{
		Storage:   storage,
		Users:     userDBImpl,
		Engine:    eng,
		Scheduler: reminders,
		Transport: transport,
		Cron:      cronScheduler,
		Log:       log,
		Cfg:       cfg,
	}, nil
}

func (app *App) Start() error {
	if owner := app.Cfg.BotConfig.OwnerUserID; owner != 0 {
		if err := app.Users.Register(owner, ""); err != nil {
			return fmt.Errorf("owner bootstrap failed: %w", err)
		}
		app.Log.Info("owner registered", slog.Int64("userID", owner))
	}

	if err := app.Scheduler.RescheduleAll(); err != nil {
		return fmt.Errorf("reminder scheduling failed: %w", err)
	}
	app.Cron.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		app.Transport.Run(ctx)
		close(done)
	}()
	app.Log.Info("bot started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	app.Log.Info("received OS signal, shutting down", slog.String("signal", sig.String()))

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		app.Log.Warn("transport stop timed out")
	}

	cronCtx := app.Cron.Stop()
	select {
	case <-cronCtx.Done():
		app.Log.Info("cron scheduler stopped")
	case <-time.After(3 * time.Second):
		app.Log.Warn("cron scheduler stop timed out")
	}

	app.Log.Info("bot stopped gracefully")
	return nil
}

func main() {
	cfg := config.MustLoad()
	log := SetupLogger(cfg.Env)
	slog.SetDefault(log)

	app, err := NewApp(cfg, log)
	if err != nil {
		log.Error("app init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		log.Error("application terminated with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func SetupLogger(env string) *slog.Logger {
	var log *slog.Logger
	level := slog.LevelInfo
	switch strings.ToLower(env) {
	case "local", "dev", "development":
		level = slog.LevelDebug
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level, AddSource: true}))
	case "prod", "production":
		log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level, AddSource: true}))
	default:
		level = slog.LevelDebug
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level, AddSource: true}))
		slog.Warn("Unknown environment in SetupLogger, defaulting to text debug logger", slog.String("env", env))
	}
	return log
}
