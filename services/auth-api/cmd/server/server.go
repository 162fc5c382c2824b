package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"chatter-server/services/auth-api/internal/config"
	"chatter-server/services/auth-api/internal/domain/user"
	"chatter-server/services/auth-api/internal/infrastructure/crontab"
	"chatter-server/services/auth-api/internal/infrastructure/database"
	"chatter-server/services/auth-api/internal/infrastructure/database/repository/tokenrepo"
	"chatter-server/services/auth-api/internal/infrastructure/database/repository/userrepo"
	"chatter-server/services/auth-api/internal/infrastructure/logger"
	"chatter-server/services/auth-api/internal/infrastructure/mailer"
	"chatter-server/services/auth-api/internal/infrastructure/tokens"
	"chatter-server/services/auth-api/internal/interfaces/httpserver"
)

// Application holds the main application components.
type Application struct {
	httpServer *httpserver.HTTPServer
	cron       *crontab.Crontab
	log        zerolog.Logger
}

// NewApplication creates a new application instance.
func NewApplication(httpServer *httpserver.HTTPServer, cron *crontab.Crontab, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		cron:       cron,
		log:        log,
	}
}

// Start runs the HTTP server and the maintenance scheduler until the context
// is cancelled.
func (a *Application) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.httpServer.Run(ctx) })
	g.Go(func() error { return a.cron.Run(ctx) })
	return g.Wait()
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log = log.With().Str("service", cfg.ServiceName).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.Postgres.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	userRepo := userrepo.NewUserGormRepository(db)
	denylist := tokenrepo.NewTokenGormRepository(db)
	tokenManager := tokens.NewManager(cfg)
	mailSender := mailer.New(cfg, log)

	userService := user.NewService(userRepo, denylist, tokenManager, mailSender, cfg.OTPTTL, log)

	httpServer := httpserver.New(cfg, log, userService)
	cron := crontab.NewCrontab(userService, log)

	app := NewApplication(httpServer, cron, log)

	log.Info().
		Str("service", cfg.ServiceName).
		Int("port", cfg.HTTPPort).
		Str("environment", cfg.Environment).
		Msg("starting application")

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env", "../../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
