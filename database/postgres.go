package database

import (
	"fmt"
	"log/slog"

	"github.com/Top-Pesinde/backend-sub001/config"
	"github.com/Top-Pesinde/backend-sub001/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table owned by this service, in migration order.
var Models = []any{
	&model.User{},
	&model.Ban{},
	&model.Conversation{},
	&model.Message{},
	&model.Block{},
	&model.Session{},
}

// GormConfig translates driver errors so repositories can match
// gorm.ErrDuplicatedKey on unique constraint violations.
func GormConfig(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}
}

// PostgresConnect opens the database and migrates every model.
func PostgresConnect(cfg *config.Settings, log *slog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), GormConfig(logger.Warn))
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}
	log.Info("Connection opened to Postgres")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("Postgres Database Migrated")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}
