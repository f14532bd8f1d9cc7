package db

import (
	"log"

	"briar/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to PostgreSQL and migrates the schema. TranslateError
// is required so duplicate-key violations surface as
// gorm.ErrDuplicatedKey and the store can map them to Conflict.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=briar port=5432 sslmode=disable"
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	log.Println("Database connection established")

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Rate{},
	); err != nil {
		return nil, err
	}
	log.Println("Database migration completed")

	return gdb, nil
}
