package repository

import (
	"errors"

	"github.com/aestheticclinic/clinic-backend/internal/domain"
	"gorm.io/gorm"
)

type DoctorProfileRepository interface {
	FindByUserID(userID uint) (*domain.DoctorProfile, error)
	FindByUserIDs(userIDs []uint) ([]domain.DoctorProfile, error)
	// Save upserts the profile for profile.UserID, replacing the
	// availability windows wholesale.
	Save(profile *domain.DoctorProfile) error
	DeleteByUserID(userID uint) error
}

type doctorProfileRepository struct {
	db *gorm.DB
}

func NewDoctorProfileRepository(db *gorm.DB) DoctorProfileRepository {
	return &doctorProfileRepository{db: db}
}

func (r *doctorProfileRepository) FindByUserID(userID uint) (*domain.DoctorProfile, error) {
	var profile domain.DoctorProfile
	err := r.db.Preload("Availability").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *doctorProfileRepository) FindByUserIDs(userIDs []uint) ([]domain.DoctorProfile, error) {
	var profiles []domain.DoctorProfile
	err := r.db.Preload("Availability").Where("user_id IN ?", userIDs).Find(&profiles).Error
	return profiles, err
}

func (r *doctorProfileRepository) Save(profile *domain.DoctorProfile) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing domain.DoctorProfile
		err := tx.Where("user_id = ?", profile.UserID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(profile).Error
		}
		if err != nil {
			return err
		}
		// Full replace: drop the old windows, rewrite the row.
		err = tx.Where("profile_id = ?", existing.ID).Delete(&domain.AvailabilityWindow{}).Error
		if err != nil {
			return err
		}
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
		for i := range profile.Availability {
			profile.Availability[i].ProfileID = existing.ID
		}
		return tx.Save(profile).Error
	})
}

func (r *doctorProfileRepository) DeleteByUserID(userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var profile domain.DoctorProfile
		err := tx.Where("user_id = ?", userID).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		err = tx.Where("profile_id = ?", profile.ID).Delete(&domain.AvailabilityWindow{}).Error
		if err != nil {
			return err
		}
		return tx.Delete(&profile).Error
	})
}
