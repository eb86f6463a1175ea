package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/aestheticclinic/clinic-backend/internal/domain"
	"github.com/aestheticclinic/clinic-backend/internal/repository"
)

// Notifier publishes outbound notification events. Publishing is
// best-effort: a broker outage must never fail a booking.
type Notifier interface {
	Publish(event domain.NotificationEvent) error
}

type BookingService interface {
	AvailableSlots(doctorID uint, date string) ([]string, error)
	RequestBooking(patientID, doctorID uint, datetime, reason string) (*domain.Appointment, error)
	PatientAppointments(patientID uint) ([]domain.Appointment, error)
	DoctorAppointments(doctorID uint) ([]domain.Appointment, error)
	SetStatus(doctorID, appointmentID uint, status string) (*domain.Appointment, error)
	Cancel(patientID, appointmentID uint) error
	DeleteAsDoctor(doctorID, appointmentID uint) error
	SendDailyReminders()
}

type bookingService struct {
	appts    repository.AppointmentRepository
	users    repository.UserRepository
	profiles repository.DoctorProfileRepository
	notifier Notifier
	Logger   *logrus.Logger
	now      func() time.Time

	mu sync.Mutex
	// doctorLocks never shrinks; its size is bounded by the number of
	// distinct doctors booked against over the process lifetime.
	doctorLocks map[uint]*sync.Mutex
}

func NewBookingService(
	appts repository.AppointmentRepository,
	users repository.UserRepository,
	profiles repository.DoctorProfileRepository,
	notifier Notifier,
	logger *logrus.Logger,
) BookingService {
	return &bookingService{
		appts:       appts,
		users:       users,
		profiles:    profiles,
		notifier:    notifier,
		Logger:      logger,
		now:         time.Now,
		doctorLocks: make(map[uint]*sync.Mutex),
	}
}

// doctorLock returns the mutex serializing admission decisions for one
// doctor. Held only across the check-and-insert, which is bounded by the
// repository calls inside it.
func (s *bookingService) doctorLock(doctorID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.doctorLocks[doctorID]
	if !ok {
		lock = &sync.Mutex{}
		s.doctorLocks[doctorID] = lock
	}
	return lock
}

// bookingLayouts are the accepted datetime formats, most specific first.
var bookingLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

func parseDatetime(value string) (time.Time, error) {
	for _, layout := range bookingLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid datetime %q", domain.ErrInvalidInput, value)
}

// doctorConfig resolves the doctor's availability windows and daily cap.
// A doctor without a saved profile has no availability at all.
func (s *bookingService) doctorConfig(doctorID uint) ([]domain.AvailabilityWindow, int, error) {
	doctor, err := s.users.FindByID(doctorID)
	if err != nil {
		return nil, 0, domain.ErrNotFound
	}
	if doctor.Role != domain.RoleDoctor {
		return nil, 0, domain.ErrNotFound
	}
	profile, err := s.profiles.FindByUserID(doctorID)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, domain.DefaultMaxPatientsPerDay, nil
		}
		return nil, 0, err
	}
	maxPerDay := profile.MaxPatientsPerDay
	if maxPerDay <= 0 {
		maxPerDay = domain.DefaultMaxPatientsPerDay
	}
	return profile.Availability, maxPerDay, nil
}

func (s *bookingService) AvailableSlots(doctorID uint, date string) ([]string, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", domain.ErrInvalidInput, date)
	}
	windows, maxPerDay, err := s.doctorConfig(doctorID)
	if err != nil {
		return nil, err
	}

	slots := domain.GenerateSlots(windows, day, s.now())

	occ, err := s.appts.OccupancyForDay(doctorID, day)
	if err != nil {
		s.Logger.WithFields(logrus.Fields{
			"Function": "AvailableSlots",
			"DoctorId": doctorID,
			"Error":    err,
		}).Error("Failed to load day occupancy")
		return nil, err
	}

	// A day at capacity lists nothing; otherwise any free slot can still
	// absorb one more booking.
	if occ.CountForDay >= maxPerDay {
		return []string{}, nil
	}

	free := make([]string, 0, len(slots))
	for _, slot := range slots {
		if !overlapsBooked(slot, occ.BookedTimes) {
			free = append(free, slot.String())
		}
	}
	return free, nil
}

// overlapsBooked applies the same overlap rule used at admission: a slot
// is shadowed by any booked time strictly closer than the granularity.
func overlapsBooked(slot domain.TimeOfDay, booked []time.Time) bool {
	for _, b := range booked {
		diff := int(slot) - int(domain.TimeOfDayOf(b))
		if diff < 0 {
			diff = -diff
		}
		if diff < domain.SlotMinutes {
			return true
		}
	}
	return false
}

func (s *bookingService) RequestBooking(patientID, doctorID uint, datetime, reason string) (*domain.Appointment, error) {
	dt, err := parseDatetime(datetime)
	if err != nil {
		return nil, err
	}
	windows, maxPerDay, err := s.doctorConfig(doctorID)
	if err != nil {
		return nil, err
	}
	if !domain.WithinAvailability(windows, dt) {
		return nil, domain.ErrOutsideAvailability
	}

	appt := &domain.Appointment{
		Reference: uuid.NewString(),
		DoctorID:  doctorID,
		PatientID: patientID,
		Datetime:  dt,
		Reason:    reason,
		Status:    domain.StatusPending,
	}

	lock := s.doctorLock(doctorID)
	lock.Lock()
	err = s.appts.AdmitBooking(appt, maxPerDay)
	lock.Unlock()
	if err != nil {
		if err == domain.ErrDayFullyBooked || err == domain.ErrSlotConflict {
			return nil, err
		}
		s.Logger.WithFields(logrus.Fields{
			"Function":  "RequestBooking",
			"DoctorId":  doctorID,
			"PatientId": patientID,
			"Error":     err,
		}).Error("Failed to admit booking")
		return nil, err
	}

	s.Logger.WithFields(logrus.Fields{
		"Function":  "RequestBooking",
		"Reference": appt.Reference,
		"DoctorId":  doctorID,
		"PatientId": patientID,
		"Datetime":  dt,
	}).Info("Appointment requested")

	s.notifyAppointment(domain.EventAppointmentRequested, appt)
	return appt, nil
}

func (s *bookingService) PatientAppointments(patientID uint) ([]domain.Appointment, error) {
	return s.appts.FindByPatient(patientID)
}

func (s *bookingService) DoctorAppointments(doctorID uint) ([]domain.Appointment, error) {
	return s.appts.FindByDoctor(doctorID)
}

func validStatus(status string) bool {
	switch status {
	case domain.StatusPending, domain.StatusConfirmed, domain.StatusRejected:
		return true
	}
	return false
}

func (s *bookingService) SetStatus(doctorID, appointmentID uint, status string) (*domain.Appointment, error) {
	if !validStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	appt, err := s.appts.FindByID(appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.DoctorID != doctorID {
		return nil, domain.ErrForbidden
	}
	if appt.Status == status {
		return appt, nil
	}

	if appt.Status == domain.StatusRejected {
		// Re-activating a rejected appointment puts it back on the
		// calendar, so it re-enters the capacity and overlap checks.
		_, maxPerDay, err := s.doctorConfig(doctorID)
		if err != nil {
			return nil, err
		}
		lock := s.doctorLock(doctorID)
		lock.Lock()
		err = s.appts.Reactivate(appt, status, maxPerDay)
		lock.Unlock()
		if err != nil {
			return nil, err
		}
	} else {
		if err := s.appts.UpdateStatus(appt, status); err != nil {
			s.Logger.WithFields(logrus.Fields{
				"Function":      "SetStatus",
				"AppointmentId": appointmentID,
				"Error":         err,
			}).Error("Failed to update appointment status")
			return nil, err
		}
	}

	s.Logger.WithFields(logrus.Fields{
		"Function":      "SetStatus",
		"AppointmentId": appointmentID,
		"DoctorId":      doctorID,
		"Status":        status,
	}).Info("Appointment status updated")

	s.notifyAppointment(domain.EventAppointmentStatus, appt)
	return appt, nil
}

func (s *bookingService) Cancel(patientID, appointmentID uint) error {
	appt, err := s.appts.FindByID(appointmentID)
	if err != nil {
		return err
	}
	if appt.PatientID != patientID {
		return domain.ErrForbidden
	}
	if appt.Status == domain.StatusConfirmed {
		return domain.ErrConfirmedCannotCancel
	}
	// The status is re-checked inside the delete: a doctor may confirm
	// between the read above and the removal.
	if err := s.appts.DeleteIfNotConfirmed(appt); err != nil {
		return err
	}
	s.Logger.WithFields(logrus.Fields{
		"Function":      "Cancel",
		"AppointmentId": appointmentID,
		"PatientId":     patientID,
	}).Info("Appointment cancelled")
	return nil
}

// DeleteAsDoctor is the doctor's cleanup path; unlike patient
// cancellation it may remove confirmed appointments.
func (s *bookingService) DeleteAsDoctor(doctorID, appointmentID uint) error {
	appt, err := s.appts.FindByID(appointmentID)
	if err != nil {
		return err
	}
	if appt.DoctorID != doctorID {
		return domain.ErrForbidden
	}
	return s.appts.Delete(appt)
}

// SendDailyReminders publishes a reminder event for every confirmed
// appointment scheduled tomorrow. Invoked by the cron scheduler.
func (s *bookingService) SendDailyReminders() {
	tomorrow := s.now().AddDate(0, 0, 1)
	from, to := domain.DayBounds(tomorrow)
	appts, err := s.appts.FindConfirmedBetween(from, to)
	if err != nil {
		s.Logger.WithFields(logrus.Fields{
			"Function": "SendDailyReminders",
			"Error":    err,
		}).Error("Failed to load tomorrow's appointments")
		return
	}
	for i := range appts {
		s.notifyAppointment(domain.EventAppointmentReminder, &appts[i])
	}
	s.Logger.WithFields(logrus.Fields{
		"Function": "SendDailyReminders",
		"Count":    len(appts),
	}).Info("Reminder events published")
}

func (s *bookingService) notifyAppointment(eventType string, appt *domain.Appointment) {
	if s.notifier == nil {
		return
	}
	event := domain.NotificationEvent{
		Type:          eventType,
		Reference:     appt.Reference,
		AppointmentAt: appt.Datetime.Format(time.RFC3339),
		Status:        appt.Status,
	}
	if patient, err := s.users.FindByID(appt.PatientID); err == nil {
		event.Email = patient.Email
		event.PatientName = patient.Name
	}
	if doctor, err := s.users.FindByID(appt.DoctorID); err == nil {
		event.DoctorName = doctor.Name
	}
	if err := s.notifier.Publish(event); err != nil {
		s.Logger.WithFields(logrus.Fields{
			"Function":  "notifyAppointment",
			"Reference": appt.Reference,
			"Type":      eventType,
			"Error":     err,
		}).Error("Failed to publish appointment event")
	}
}
