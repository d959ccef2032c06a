package database

import (
	"profile-app/internal/domain/billing"
	"profile-app/internal/domain/subscriptions"
	"profile-app/internal/domain/tenants"
	"profile-app/internal/domain/users"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Config shared by the Postgres connection and the test databases.
// users.tenant_id and corporate_tenants.admin_id reference each other, so
// foreign keys are left to the application.
func GormConfig() *gorm.Config {
	return &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true}
}

func InitDB(dsn string) {
	if dsn == "" {
		log.Fatal().Msg("DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), GormConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if err := Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("AutoMigrate error")
	}
	DB = db

	log.Info().Msg("Connected and migrated successfully")
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// identity
		&users.User{},

		// billing
		&subscriptions.Subscription{},
		&billing.Order{},
		&billing.WebhookEvent{},

		// corporate
		&tenants.CorporateTenant{},
		&tenants.Department{},
	)
}
