package repository

import (
	"errors"
	"math"
	"time"

	"github.com/aestheticclinic/clinic-backend/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Occupancy is the booked state of one doctor's calendar day: the exact
// times of non-terminal appointments plus the count against the daily cap.
type Occupancy struct {
	BookedTimes []time.Time
	CountForDay int
}

type AppointmentRepository interface {
	// AdmitBooking runs the capacity and overlap checks and the insert as
	// one transaction over the doctor's day. It returns
	// domain.ErrDayFullyBooked, domain.ErrSlotConflict, or nil.
	AdmitBooking(appt *domain.Appointment, maxPerDay int) error
	// Reactivate moves a terminal appointment back to a non-terminal
	// status, re-entering the capacity and overlap checks and re-claiming
	// the slot key.
	Reactivate(appt *domain.Appointment, status string, maxPerDay int) error
	OccupancyForDay(doctorID uint, date time.Time) (Occupancy, error)
	FindByID(id uint) (*domain.Appointment, error)
	FindByDoctor(doctorID uint) ([]domain.Appointment, error)
	FindByPatient(patientID uint) ([]domain.Appointment, error)
	FindConfirmedBetween(from, to time.Time) ([]domain.Appointment, error)
	UpdateStatus(appt *domain.Appointment, status string) error
	Delete(appt *domain.Appointment) error
	// DeleteIfNotConfirmed removes the appointment only while its stored
	// status is not confirmed, re-checking inside the transaction. It
	// returns domain.ErrConfirmedCannotCancel when the row flipped to
	// confirmed after the caller's read, domain.ErrNotFound when the
	// row is gone.
	DeleteIfNotConfirmed(appt *domain.Appointment) error
	DeleteByDoctor(doctorID uint) error
	DeleteByPatient(patientID uint) error
}

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

var nonTerminal = []string{domain.StatusPending, domain.StatusConfirmed}

func (r *appointmentRepository) AdmitBooking(appt *domain.Appointment, maxPerDay int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		existing, err := lockDay(tx, appt.DoctorID, appt.Datetime)
		if err != nil {
			return err
		}
		if err := checkDay(existing, appt.Datetime, 0, maxPerDay); err != nil {
			return err
		}
		key := domain.FloorToSlot(appt.Datetime)
		appt.SlotKey = &key
		if err := tx.Create(appt).Error; err != nil {
			// Conflicting insert that raced past the row locks; the
			// (doctor_id, slot_key) unique index is the backstop.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrSlotConflict
			}
			return err
		}
		return nil
	})
}

func (r *appointmentRepository) Reactivate(appt *domain.Appointment, status string, maxPerDay int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		existing, err := lockDay(tx, appt.DoctorID, appt.Datetime)
		if err != nil {
			return err
		}
		if err := checkDay(existing, appt.Datetime, appt.ID, maxPerDay); err != nil {
			return err
		}
		key := domain.FloorToSlot(appt.Datetime)
		res := tx.Model(appt).Select("status", "slot_key").
			Updates(map[string]interface{}{"status": status, "slot_key": key})
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return domain.ErrSlotConflict
			}
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		appt.Status = status
		appt.SlotKey = &key
		return nil
	})
}

// lockDay takes FOR UPDATE on the doctor's non-terminal appointments in
// the day containing t, serializing concurrent admissions per doctor+day.
func lockDay(tx *gorm.DB, doctorID uint, t time.Time) ([]domain.Appointment, error) {
	dayStart, dayEnd := domain.DayBounds(t)
	var existing []domain.Appointment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("doctor_id = ? AND datetime >= ? AND datetime < ? AND status IN ?",
			doctorID, dayStart, dayEnd, nonTerminal).
		Find(&existing).Error
	return existing, err
}

// checkDay enforces the daily cap and then the overlap rule against the
// locked rows, in that order. excludeID skips the appointment being
// re-activated. Two appointments conflict when strictly closer than the
// slot granularity.
func checkDay(existing []domain.Appointment, t time.Time, excludeID uint, maxPerDay int) error {
	count := 0
	for _, e := range existing {
		if e.ID != excludeID {
			count++
		}
	}
	if count >= maxPerDay {
		return domain.ErrDayFullyBooked
	}
	for _, e := range existing {
		if e.ID == excludeID {
			continue
		}
		if math.Abs(e.Datetime.Sub(t).Minutes()) < domain.SlotMinutes {
			return domain.ErrSlotConflict
		}
	}
	return nil
}

func (r *appointmentRepository) OccupancyForDay(doctorID uint, date time.Time) (Occupancy, error) {
	dayStart, dayEnd := domain.DayBounds(date)
	var appts []domain.Appointment
	err := r.db.
		Where("doctor_id = ? AND datetime >= ? AND datetime < ? AND status IN ?",
			doctorID, dayStart, dayEnd, nonTerminal).
		Find(&appts).Error
	if err != nil {
		return Occupancy{}, err
	}
	occ := Occupancy{CountForDay: len(appts)}
	for _, a := range appts {
		occ.BookedTimes = append(occ.BookedTimes, a.Datetime)
	}
	return occ, nil
}

func (r *appointmentRepository) FindByID(id uint) (*domain.Appointment, error) {
	var appt domain.Appointment
	if err := r.db.First(&appt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &appt, nil
}

func (r *appointmentRepository) FindByDoctor(doctorID uint) ([]domain.Appointment, error) {
	var appts []domain.Appointment
	err := r.db.Where("doctor_id = ?", doctorID).Order("datetime ASC").Find(&appts).Error
	return appts, err
}

func (r *appointmentRepository) FindByPatient(patientID uint) ([]domain.Appointment, error) {
	var appts []domain.Appointment
	err := r.db.Where("patient_id = ?", patientID).Order("datetime ASC").Find(&appts).Error
	return appts, err
}

func (r *appointmentRepository) FindConfirmedBetween(from, to time.Time) ([]domain.Appointment, error) {
	var appts []domain.Appointment
	err := r.db.
		Where("status = ? AND datetime >= ? AND datetime < ?", domain.StatusConfirmed, from, to).
		Order("datetime ASC").Find(&appts).Error
	return appts, err
}

// UpdateStatus handles the transitions that do not change occupancy:
// pending <-> confirmed, and any non-terminal -> rejected (which clears
// the slot key). Terminal -> non-terminal goes through Reactivate. An
// update hitting zero rows means the appointment was removed after the
// caller's read.
func (r *appointmentRepository) UpdateStatus(appt *domain.Appointment, status string) error {
	updates := map[string]interface{}{"status": status}
	if status == domain.StatusRejected {
		updates["slot_key"] = nil
	}
	res := r.db.Model(appt).Select("status", "slot_key").Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	appt.Status = status
	if status == domain.StatusRejected {
		appt.SlotKey = nil
	}
	return nil
}

// Delete clears the slot key before the (soft) delete so the unique index
// no longer shadows the freed slot.
func (r *appointmentRepository) Delete(appt *domain.Appointment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(appt).Update("slot_key", nil).Error; err != nil {
			return err
		}
		return tx.Delete(appt).Error
	})
}

// DeleteIfNotConfirmed is the patient-cancel delete. The status predicate
// runs in the same statement that locks the row, so a doctor confirming
// concurrently can no longer slip between the caller's status read and
// the removal.
func (r *appointmentRepository) DeleteIfNotConfirmed(appt *domain.Appointment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Appointment{}).
			Where("id = ? AND status <> ?", appt.ID, domain.StatusConfirmed).
			Update("slot_key", nil)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var current domain.Appointment
			err := tx.First(&current, appt.ID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			if err != nil {
				return err
			}
			return domain.ErrConfirmedCannotCancel
		}
		return tx.Delete(&domain.Appointment{}, appt.ID).Error
	})
}

func (r *appointmentRepository) DeleteByDoctor(doctorID uint) error {
	return r.deleteWhere("doctor_id = ?", doctorID)
}

func (r *appointmentRepository) DeleteByPatient(patientID uint) error {
	return r.deleteWhere("patient_id = ?", patientID)
}

func (r *appointmentRepository) deleteWhere(query string, arg interface{}) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&domain.Appointment{}).Where(query, arg).
			Update("slot_key", nil).Error
		if err != nil {
			return err
		}
		return tx.Where(query, arg).Delete(&domain.Appointment{}).Error
	})
}
