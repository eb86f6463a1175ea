package repository

import (
	"github.com/aestheticclinic/clinic-backend/internal/domain"
	"gorm.io/gorm"
)

type ReportRepository interface {
	Create(report *domain.Report) error
	FindByDoctor(doctorID uint) ([]domain.Report, error)
	FindByPatient(patientID uint) ([]domain.Report, error)
	DeleteByDoctor(doctorID uint) error
	DeleteByPatient(patientID uint) error
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(report *domain.Report) error {
	return r.db.Create(report).Error
}

func (r *reportRepository) FindByDoctor(doctorID uint) ([]domain.Report, error) {
	var reports []domain.Report
	err := r.db.Where("doctor_id = ?", doctorID).Order("created_at DESC").Find(&reports).Error
	return reports, err
}

func (r *reportRepository) FindByPatient(patientID uint) ([]domain.Report, error) {
	var reports []domain.Report
	err := r.db.Where("patient_id = ?", patientID).Order("created_at DESC").Find(&reports).Error
	return reports, err
}

func (r *reportRepository) DeleteByDoctor(doctorID uint) error {
	return r.db.Where("doctor_id = ?", doctorID).Delete(&domain.Report{}).Error
}

func (r *reportRepository) DeleteByPatient(patientID uint) error {
	return r.db.Where("patient_id = ?", patientID).Delete(&domain.Report{}).Error
}
