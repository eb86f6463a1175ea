package config

import (
	"errors"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/aestheticclinic/clinic-backend/internal/domain"
)

// InitDatabase opens the Postgres connection and migrates the schema.
// TranslateError is required: the booking path relies on
// gorm.ErrDuplicatedKey to detect slot-key collisions.
func InitDatabase() *gorm.DB {
	dsn := os.Getenv("DATABASE_URL")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	err = db.AutoMigrate(
		&domain.User{},
		&domain.DoctorProfile{},
		&domain.AvailabilityWindow{},
		&domain.Appointment{},
		&domain.Report{},
		&domain.ContactInquiry{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if err := seedAdmin(db); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}
	return db
}

// seedAdmin creates the administrator account from ADMIN_EMAIL and
// ADMIN_PASSWORD when it does not exist yet. There is no admin signup.
func seedAdmin(db *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}
	var existing domain.User
	err := db.Where("email = ? AND role = ?", email, domain.RoleAdmin).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := domain.User{
		Name:     "Administrator",
		Email:    email,
		Password: string(hash),
		Role:     domain.RoleAdmin,
	}
	return db.Create(&admin).Error
}
