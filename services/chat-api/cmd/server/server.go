package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"chatter-server/services/chat-api/internal/config"
	"chatter-server/services/chat-api/internal/domain/chat"
	"chatter-server/services/chat-api/internal/infrastructure/authclient"
	"chatter-server/services/chat-api/internal/infrastructure/database"
	"chatter-server/services/chat-api/internal/infrastructure/database/repository/activityrepo"
	"chatter-server/services/chat-api/internal/infrastructure/database/repository/messagerepo"
	"chatter-server/services/chat-api/internal/infrastructure/database/repository/roomrepo"
	"chatter-server/services/chat-api/internal/infrastructure/logger"
	"chatter-server/services/chat-api/internal/interfaces/httpserver"
	"chatter-server/services/chat-api/internal/interfaces/wsserver"
)

// Application holds the main application components.
type Application struct {
	httpServer *httpserver.HTTPServer
	log        zerolog.Logger
}

// NewApplication creates a new application instance.
func NewApplication(httpServer *httpserver.HTTPServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

// Start runs the application until the context is cancelled.
func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
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

	roomRepo := roomrepo.NewRoomGormRepository(db)
	messageRepo := messagerepo.NewMessageGormRepository(db)
	activityRepo := activityrepo.NewActivityGormRepository(db)

	authClient := authclient.New(cfg, log)
	chatService := chat.NewService(roomRepo, messageRepo, activityRepo, authClient, log)

	hub := wsserver.NewHub(log)
	wsHandler := wsserver.NewHandler(cfg, hub, chatService, authClient, log)

	httpServer := httpserver.New(cfg, log, chatService, authClient, wsHandler)

	app := NewApplication(httpServer, log)

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
