package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/aestheticclinic/clinic-backend/internal/domain"
	"github.com/aestheticclinic/clinic-backend/internal/repository"
)

type ReportService interface {
	Create(doctorID, patientID uint, title, notes, fileURL string) (*domain.Report, error)
	ListByDoctor(doctorID uint) ([]domain.Report, error)
	ListByPatient(patientID uint) ([]domain.Report, error)
}

type reportService struct {
	reports repository.ReportRepository
	users   repository.UserRepository
	Logger  *logrus.Logger
}

func NewReportService(reports repository.ReportRepository, users repository.UserRepository, logger *logrus.Logger) ReportService {
	return &reportService{reports: reports, users: users, Logger: logger}
}

func (s *reportService) Create(doctorID, patientID uint, title, notes, fileURL string) (*domain.Report, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	patient, err := s.users.FindByID(patientID)
	if err != nil || patient.Role != domain.RolePatient {
		return nil, domain.ErrNotFound
	}
	report := &domain.Report{
		DoctorID:  doctorID,
		PatientID: patientID,
		Title:     title,
		Notes:     notes,
		FileURL:   fileURL,
	}
	if err := s.reports.Create(report); err != nil {
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{
		"Function":  "CreateReport",
		"DoctorId":  doctorID,
		"PatientId": patientID,
	}).Info("Report created")
	return report, nil
}

func (s *reportService) ListByDoctor(doctorID uint) ([]domain.Report, error) {
	return s.reports.FindByDoctor(doctorID)
}

func (s *reportService) ListByPatient(patientID uint) ([]domain.Report, error) {
	return s.reports.FindByPatient(patientID)
}
