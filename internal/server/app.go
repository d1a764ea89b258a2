// Package server wires the application together: configuration, logging,
// the database with migrations, the mail worker, and the recipe queue
// worker, with signal-driven graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/jspark-dev/pantrykeeper/internal/logging"
	"github.com/jspark-dev/pantrykeeper/internal/server/config"
	"github.com/jspark-dev/pantrykeeper/internal/server/mail"
	"github.com/jspark-dev/pantrykeeper/internal/server/queue"
	"github.com/jspark-dev/pantrykeeper/internal/server/recipegen"
	"github.com/jspark-dev/pantrykeeper/internal/server/repositories/repomanager"
	"github.com/jspark-dev/pantrykeeper/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB

	mailSender *mail.SMTPSender
	worker     *queue.Worker

	VerificationService *services.VerificationService
	UserService         *services.UserService
	SessionService      *services.SessionService
	RecipeService       *services.RecipeService
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	sender := mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom, logger)
	gen := recipegen.NewHTTPClient(cfg.GenerationEndpoint, cfg.GenerationModel, cfg.GenerationAPIKey)
	worker := queue.NewWorker(cfg.QueuePollInterval, logger)

	vs := services.NewVerificationService(db, rm, cfg, sender)
	us := services.NewUserService(db, rm, cfg, sender)
	ss := services.NewSessionService(db, rm, us, cfg, sender)
	rs := services.NewRecipeService(db, rm, ss, gen, worker, cfg, logger)

	return &App{
		config:              cfg,
		logger:              logger,
		db:                  db,
		mailSender:          sender,
		worker:              worker,
		VerificationService: vs,
		UserService:         us,
		SessionService:      ss,
		RecipeService:       rs,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts the background workers and blocks until a shutdown signal
// arrives or the context is canceled.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)
	app.mailSender.Start()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.worker.Run(ctx, app.RecipeService)
	}()

	wg.Wait()

	app.mailSender.Stop()
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing db", "error", err)
	}
	app.logger.Info(ctx, "app stopped")
}
