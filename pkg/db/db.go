package db

import (
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/paglaai/paglachat/pkg/db/models"
)

type DB struct {
	DB *gorm.DB
}

func New(dsn string, logLevel logger.LogLevel) (*DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	return &DB{
		DB: db,
	}, nil
}

// UpdateSchema migrates the chat tables. Conversation and message ids are
// assigned by postgres (gen_random_uuid), which requires the pgcrypto
// extension on older releases.
func (d *DB) UpdateSchema() error {
	if err := d.DB.Exec("CREATE EXTENSION IF NOT EXISTS pgcrypto").Error; err != nil {
		return errors.Wrap(err, "could not create pgcrypto extension")
	}

	if err := d.DB.AutoMigrate(&models.Conversation{}, &models.Message{}); err != nil {
		return errors.Wrap(err, "could not migrate chat tables")
	}

	return nil
}
