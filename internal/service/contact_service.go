package service

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/aestheticclinic/clinic-backend/internal/domain"
	"github.com/aestheticclinic/clinic-backend/internal/repository"
)

type ContactService interface {
	Submit(name, email, message string) (*domain.ContactInquiry, error)
	List() ([]domain.ContactInquiry, error)
	MarkRead(id uint, read bool) (*domain.ContactInquiry, error)
	Delete(id uint) error
}

type contactService struct {
	inquiries repository.ContactRepository
	notifier  Notifier
	Logger    *logrus.Logger
}

func NewContactService(inquiries repository.ContactRepository, notifier Notifier, logger *logrus.Logger) ContactService {
	return &contactService{inquiries: inquiries, notifier: notifier, Logger: logger}
}

func (s *contactService) Submit(name, email, message string) (*domain.ContactInquiry, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	message = strings.TrimSpace(message)
	if name == "" || email == "" || message == "" {
		return nil, fmt.Errorf("%w: name, email and message are required", domain.ErrInvalidInput)
	}
	inquiry := &domain.ContactInquiry{Name: name, Email: email, Message: message}
	if err := s.inquiries.Create(inquiry); err != nil {
		return nil, err
	}

	// Best-effort: the inquiry is stored regardless of broker health.
	if s.notifier != nil {
		err := s.notifier.Publish(domain.NotificationEvent{
			Type:        domain.EventContactInquiry,
			Email:       email,
			PatientName: name,
			Message:     message,
		})
		if err != nil {
			s.Logger.WithFields(logrus.Fields{
				"Function":  "SubmitInquiry",
				"InquiryId": inquiry.ID,
				"Error":     err,
			}).Error("Failed to publish contact inquiry event")
		}
	}

	s.Logger.WithFields(logrus.Fields{
		"Function":  "SubmitInquiry",
		"InquiryId": inquiry.ID,
		"Email":     email,
	}).Info("Contact inquiry received")
	return inquiry, nil
}

func (s *contactService) List() ([]domain.ContactInquiry, error) {
	return s.inquiries.FindAll()
}

func (s *contactService) MarkRead(id uint, read bool) (*domain.ContactInquiry, error) {
	return s.inquiries.SetRead(id, read)
}

func (s *contactService) Delete(id uint) error {
	return s.inquiries.Delete(id)
}
