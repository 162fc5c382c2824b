//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"chatter-server/services/chat-api/internal/config"
	"chatter-server/services/chat-api/internal/domain/chat"
	"chatter-server/services/chat-api/internal/infrastructure/authclient"
	"chatter-server/services/chat-api/internal/infrastructure/database"
	"chatter-server/services/chat-api/internal/infrastructure/database/repository/activityrepo"
	"chatter-server/services/chat-api/internal/infrastructure/database/repository/messagerepo"
	"chatter-server/services/chat-api/internal/infrastructure/database/repository/roomrepo"
	"chatter-server/services/chat-api/internal/interfaces/httpserver"
	"chatter-server/services/chat-api/internal/interfaces/wsserver"
)

// ProviderSet is the wire provider set for the application.
var ProviderSet = wire.NewSet(
	// Infrastructure providers
	ProvideDB,
	ProvideUserDirectory,
	authclient.New,
	roomrepo.NewRoomGormRepository,
	messagerepo.NewMessageGormRepository,
	activityrepo.NewActivityGormRepository,

	// Domain providers
	chat.NewService,

	// Interface providers
	wsserver.NewHub,
	wsserver.NewHandler,
	httpserver.New,

	// Application
	NewApplication,
)

// ProvideDB provides a migrated database handle.
func ProvideDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.NewDB(cfg.Postgres.DSN())
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// ProvideUserDirectory exposes the auth client as the username resolver.
func ProvideUserDirectory(client *authclient.Client) chat.UserDirectory {
	return client
}

// CreateApplication creates the application with all dependencies wired.
func CreateApplication(cfg *config.Config, log zerolog.Logger) (*Application, error) {
	wire.Build(ProviderSet)
	return nil, nil
}
