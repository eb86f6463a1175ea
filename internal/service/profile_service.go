package service

import (
	"github.com/sirupsen/logrus"

	"github.com/aestheticclinic/clinic-backend/internal/domain"
	"github.com/aestheticclinic/clinic-backend/internal/repository"
)

// ProfileInput is the full replacement payload for a doctor's profile.
type ProfileInput struct {
	Specialty         string
	Fee               float64
	MaxPatientsPerDay int
	Availability      []domain.AvailabilityWindow
}

type ProfileService interface {
	GetProfile(doctorID uint) (*domain.User, *domain.DoctorProfile, error)
	SaveProfile(doctorID uint, input ProfileInput) (*domain.DoctorProfile, error)
}

type profileService struct {
	users    repository.UserRepository
	profiles repository.DoctorProfileRepository
	Logger   *logrus.Logger
}

func NewProfileService(users repository.UserRepository, profiles repository.DoctorProfileRepository, logger *logrus.Logger) ProfileService {
	return &profileService{users: users, profiles: profiles, Logger: logger}
}

func (s *profileService) GetProfile(doctorID uint) (*domain.User, *domain.DoctorProfile, error) {
	user, err := s.users.FindByID(doctorID)
	if err != nil || user.Role != domain.RoleDoctor {
		return nil, nil, domain.ErrNotFound
	}
	profile, err := s.profiles.FindByUserID(doctorID)
	if err == domain.ErrNotFound {
		return user, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return user, profile, nil
}

func (s *profileService) SaveProfile(doctorID uint, input ProfileInput) (*domain.DoctorProfile, error) {
	user, err := s.users.FindByID(doctorID)
	if err != nil || user.Role != domain.RoleDoctor {
		return nil, domain.ErrNotFound
	}
	// Malformed windows are rejected here instead of silently producing
	// zero slots later.
	if err := domain.ValidateWindows(input.Availability); err != nil {
		return nil, err
	}
	maxPerDay := input.MaxPatientsPerDay
	if maxPerDay <= 0 {
		maxPerDay = domain.DefaultMaxPatientsPerDay
	}
	profile := &domain.DoctorProfile{
		UserID:            doctorID,
		Specialty:         input.Specialty,
		Fee:               input.Fee,
		MaxPatientsPerDay: maxPerDay,
		Availability:      input.Availability,
	}
	if err := s.profiles.Save(profile); err != nil {
		s.Logger.WithFields(logrus.Fields{
			"Function": "SaveProfile",
			"DoctorId": doctorID,
			"Error":    err,
		}).Error("Failed to save doctor profile")
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{
		"Function": "SaveProfile",
		"DoctorId": doctorID,
		"Windows":  len(input.Availability),
	}).Info("Doctor profile saved")
	return profile, nil
}
