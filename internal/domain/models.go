package domain

import (
	"time"

	"gorm.io/gorm"
)

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// Appointment statuses. Pending and confirmed count against a doctor's
// daily capacity; rejected is terminal and frees its slot.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
)

const DefaultMaxPatientsPerDay = 20

type User struct {
	gorm.Model
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"index;not null" json:"role"`
}

// DoctorProfile holds the scheduling configuration of a doctor, keyed by
// the owning user account. The availability windows are replaced wholesale
// on every save.
type DoctorProfile struct {
	gorm.Model
	UserID            uint                 `gorm:"uniqueIndex;not null" json:"userId"`
	Specialty         string               `json:"specialty"`
	Fee               float64              `json:"fee"`
	MaxPatientsPerDay int                  `gorm:"default:20" json:"maxPatientsPerDay"`
	Availability      []AvailabilityWindow `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"availability"`
}

// AvailabilityWindow is one recurring weekly interval during which the
// doctor accepts appointments. Day uses the Sun..Sat labels, times are
// zero-padded HH:MM.
type AvailabilityWindow struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	ProfileID uint   `gorm:"index;not null" json:"-"`
	Day       string `gorm:"not null" json:"day"`
	Start     string `gorm:"not null" json:"start"`
	End       string `gorm:"not null" json:"end"`
}

type Appointment struct {
	gorm.Model
	Reference string    `gorm:"uniqueIndex;not null" json:"reference"`
	DoctorID  uint      `gorm:"index;not null;uniqueIndex:idx_doctor_slot" json:"doctorId"`
	PatientID uint      `gorm:"index;not null" json:"patientId"`
	Datetime  time.Time `gorm:"not null" json:"datetime"`
	Reason    string    `json:"reason"`
	Status    string    `gorm:"index;not null;default:pending" json:"status"`
	// SlotKey is Datetime floored to the slot grid and is set only while
	// the appointment is non-terminal. The unique index over
	// (doctor_id, slot_key) is the storage-level double-booking backstop;
	// Postgres permits any number of NULLs in it.
	SlotKey *time.Time `gorm:"uniqueIndex:idx_doctor_slot" json:"-"`
}

type Report struct {
	gorm.Model
	PatientID uint   `gorm:"index;not null" json:"patientId"`
	DoctorID  uint   `gorm:"index;not null" json:"doctorId"`
	Title     string `gorm:"not null" json:"title"`
	Notes     string `json:"notes"`
	FileURL   string `json:"fileUrl"`
}

type ContactInquiry struct {
	gorm.Model
	Name    string `gorm:"not null" json:"name"`
	Email   string `gorm:"not null" json:"email"`
	Message string `gorm:"not null" json:"message"`
	Read    bool   `gorm:"default:false" json:"read"`
}

// Notification event types published to Kafka. Delivery (mail, SMS) is a
// downstream consumer's job.
const (
	EventAppointmentRequested = "appointment_requested"
	EventAppointmentStatus    = "appointment_status"
	EventAppointmentReminder  = "appointment_reminder"
	EventContactInquiry       = "contact_inquiry"
)

type NotificationEvent struct {
	Type          string `json:"type"`
	Reference     string `json:"reference,omitempty"`
	Email         string `json:"email,omitempty"`
	PatientName   string `json:"patient_name,omitempty"`
	DoctorName    string `json:"doctor_name,omitempty"`
	AppointmentAt string `json:"appointment_at,omitempty"`
	Status        string `json:"status,omitempty"`
	Message       string `json:"message,omitempty"`
}
