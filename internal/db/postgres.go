package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
	"github.com/pursue-app/pursue-backend/internal/types"
	"github.com/pursue-app/pursue-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "pursue", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := gormDB.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: gormDB, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.Group{},
		&types.GroupMember{},
		&types.Goal{},
		&types.ProgressEntry{},
		&types.ReminderPreference{},
		&types.ReminderHistory{},
		&types.LoggingPattern{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
