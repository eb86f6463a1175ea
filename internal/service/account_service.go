package service

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/aestheticclinic/clinic-backend/internal/domain"
	"github.com/aestheticclinic/clinic-backend/internal/repository"
)

// DoctorListing is the public/patient-facing shape of a doctor account
// merged with its profile.
type DoctorListing struct {
	ID                uint                        `json:"id"`
	Name              string                      `json:"name"`
	Email             string                      `json:"email"`
	Specialty         string                      `json:"specialty"`
	Fee               float64                     `json:"fee"`
	Availability      []domain.AvailabilityWindow `json:"availability"`
	MaxPatientsPerDay int                         `json:"maxPatientsPerDay"`
	CreatedAt         time.Time                   `json:"createdAt"`
}

type UserStats struct {
	Patients int64 `json:"patients"`
	Doctors  int64 `json:"doctors"`
	Admins   int64 `json:"admins"`
	Total    int64 `json:"total"`
}

type DoctorInput struct {
	Name      string
	Email     string
	Password  string
	Specialty string
	Fee       float64
}

type AccountService interface {
	CreateDoctor(input DoctorInput) (*domain.User, error)
	UpdateDoctor(id uint, input DoctorInput) error
	DeleteDoctor(id uint) error
	ListDoctors() ([]DoctorListing, error)
	ListPatients() ([]domain.User, error)
	DeletePatient(id uint) error
	ListUsers() ([]domain.User, error)
	Stats() (UserStats, error)
}

type accountService struct {
	users    repository.UserRepository
	profiles repository.DoctorProfileRepository
	appts    repository.AppointmentRepository
	reports  repository.ReportRepository
	Logger   *logrus.Logger
}

func NewAccountService(
	users repository.UserRepository,
	profiles repository.DoctorProfileRepository,
	appts repository.AppointmentRepository,
	reports repository.ReportRepository,
	logger *logrus.Logger,
) AccountService {
	return &accountService{users: users, profiles: profiles, appts: appts, reports: reports, Logger: logger}
}

func (s *accountService) CreateDoctor(input DoctorInput) (*domain.User, error) {
	if input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", domain.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	doctor := &domain.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hash),
		Role:     domain.RoleDoctor,
	}
	if err := s.users.Create(doctor); err != nil {
		return nil, err
	}
	profile := &domain.DoctorProfile{
		UserID:            doctor.ID,
		Specialty:         input.Specialty,
		Fee:               input.Fee,
		MaxPatientsPerDay: domain.DefaultMaxPatientsPerDay,
	}
	if err := s.profiles.Save(profile); err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{
		"Function": "CreateDoctor",
		"DoctorId": doctor.ID,
		"Email":    doctor.Email,
	}).Info("Doctor account created")
	return doctor, nil
}

func (s *accountService) UpdateDoctor(id uint, input DoctorInput) error {
	doctor, err := s.users.FindByID(id)
	if err != nil || doctor.Role != domain.RoleDoctor {
		return domain.ErrNotFound
	}
	if input.Name != "" {
		doctor.Name = input.Name
	}
	if input.Email != "" {
		doctor.Email = input.Email
	}
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		doctor.Password = string(hash)
	}
	if err := s.users.Update(doctor); err != nil {
		return err
	}
	profile, err := s.profiles.FindByUserID(id)
	if err == domain.ErrNotFound {
		profile = &domain.DoctorProfile{UserID: id, MaxPatientsPerDay: domain.DefaultMaxPatientsPerDay}
	} else if err != nil {
		return err
	}
	if input.Specialty != "" {
		profile.Specialty = input.Specialty
	}
	if input.Fee != 0 {
		profile.Fee = input.Fee
	}
	return s.profiles.Save(profile)
}

// DeleteDoctor removes the account and cascades: appointments, reports,
// and the profile go with it.
func (s *accountService) DeleteDoctor(id uint) error {
	doctor, err := s.users.FindByID(id)
	if err != nil || doctor.Role != domain.RoleDoctor {
		return domain.ErrNotFound
	}
	if err := s.appts.DeleteByDoctor(id); err != nil {
		return err
	}
	if err := s.reports.DeleteByDoctor(id); err != nil {
		return err
	}
	if err := s.profiles.DeleteByUserID(id); err != nil {
		return err
	}
	if err := s.users.Delete(doctor); err != nil {
		return err
	}
	s.Logger.WithFields(logrus.Fields{
		"Function": "DeleteDoctor",
		"DoctorId": id,
	}).Info("Doctor account and related data deleted")
	return nil
}

func (s *accountService) ListDoctors() ([]DoctorListing, error) {
	doctors, err := s.users.FindByRole(domain.RoleDoctor)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(doctors))
	for _, d := range doctors {
		ids = append(ids, d.ID)
	}
	profiles, err := s.profiles.FindByUserIDs(ids)
	if err != nil {
		return nil, err
	}
	byUser := make(map[uint]domain.DoctorProfile, len(profiles))
	for _, p := range profiles {
		byUser[p.UserID] = p
	}
	listings := make([]DoctorListing, 0, len(doctors))
	for _, d := range doctors {
		listing := DoctorListing{
			ID:                d.ID,
			Name:              d.Name,
			Email:             d.Email,
			Availability:      []domain.AvailabilityWindow{},
			MaxPatientsPerDay: domain.DefaultMaxPatientsPerDay,
			CreatedAt:         d.CreatedAt,
		}
		if p, ok := byUser[d.ID]; ok {
			listing.Specialty = p.Specialty
			listing.Fee = p.Fee
			if p.MaxPatientsPerDay > 0 {
				listing.MaxPatientsPerDay = p.MaxPatientsPerDay
			}
			if p.Availability != nil {
				listing.Availability = p.Availability
			}
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

func (s *accountService) ListPatients() ([]domain.User, error) {
	return s.users.FindByRole(domain.RolePatient)
}

func (s *accountService) DeletePatient(id uint) error {
	patient, err := s.users.FindByID(id)
	if err != nil || patient.Role != domain.RolePatient {
		return domain.ErrNotFound
	}
	if err := s.appts.DeleteByPatient(id); err != nil {
		return err
	}
	if err := s.reports.DeleteByPatient(id); err != nil {
		return err
	}
	if err := s.users.Delete(patient); err != nil {
		return err
	}
	s.Logger.WithFields(logrus.Fields{
		"Function":  "DeletePatient",
		"PatientId": id,
	}).Info("Patient account and related data deleted")
	return nil
}

func (s *accountService) ListUsers() ([]domain.User, error) {
	return s.users.FindAll()
}

func (s *accountService) Stats() (UserStats, error) {
	var stats UserStats
	var err error
	if stats.Patients, err = s.users.CountByRole(domain.RolePatient); err != nil {
		return stats, err
	}
	if stats.Doctors, err = s.users.CountByRole(domain.RoleDoctor); err != nil {
		return stats, err
	}
	if stats.Admins, err = s.users.CountByRole(domain.RoleAdmin); err != nil {
		return stats, err
	}
	stats.Total = stats.Patients + stats.Doctors + stats.Admins
	return stats, nil
}
