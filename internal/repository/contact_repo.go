package repository

import (
	"errors"

	"github.com/aestheticclinic/clinic-backend/internal/domain"
	"gorm.io/gorm"
)

type ContactRepository interface {
	Create(inquiry *domain.ContactInquiry) error
	FindAll() ([]domain.ContactInquiry, error)
	SetRead(id uint, read bool) (*domain.ContactInquiry, error)
	Delete(id uint) error
}

type contactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(inquiry *domain.ContactInquiry) error {
	return r.db.Create(inquiry).Error
}

func (r *contactRepository) FindAll() ([]domain.ContactInquiry, error) {
	var inquiries []domain.ContactInquiry
	err := r.db.Order("created_at DESC").Find(&inquiries).Error
	return inquiries, err
}

func (r *contactRepository) SetRead(id uint, read bool) (*domain.ContactInquiry, error) {
	var inquiry domain.ContactInquiry
	if err := r.db.First(&inquiry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.db.Model(&inquiry).Update("read", read).Error; err != nil {
		return nil, err
	}
	inquiry.Read = read
	return &inquiry, nil
}

func (r *contactRepository) Delete(id uint) error {
	res := r.db.Delete(&domain.ContactInquiry{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
