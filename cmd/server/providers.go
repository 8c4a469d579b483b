package main

import (
	"log"

	"devops_platform_backend/internal/app"
	"devops_platform_backend/internal/auth"
	"devops_platform_backend/internal/config"
	"devops_platform_backend/internal/platform/database"
	"devops_platform_backend/internal/platform/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// application is what serve needs beyond the HTTP server itself.
type application struct {
	Server *app.Server
	DB     *gorm.DB
	Logger *zap.Logger
	Hasher auth.PasswordHasher
}

// store backs the migrate and seed commands.
type store struct {
	DB     *gorm.DB
	Logger *zap.Logger
	Hasher auth.PasswordHasher
}

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return l, func() {
		// stderr sync fails on some terminals; nothing to recover.
		_ = l.Sync()
	}, nil
}

func provideDB(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		database.CloseGORMDB(db, logger)
		log.Println("INFO: Cleanup finished.")
	}, nil
}

func provideBlocklist(cfg *config.Config) auth.TokenBlocklistService {
	return auth.NewInMemoryBlocklistService(auth.InMemoryBlocklistConfig{
		DefaultExpiration: cfg.JWTExpiry,
		CleanupInterval:   cfg.JWTExpiry / 2,
	})
}
