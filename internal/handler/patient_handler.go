package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/aestheticclinic/clinic-backend/internal/middleware"
	"github.com/aestheticclinic/clinic-backend/internal/service"
)

type PatientHandler struct {
	bookings service.BookingService
	accounts service.AccountService
	reports  service.ReportService
	Logger   *logrus.Logger
}

func NewPatientHandler(bookings service.BookingService, accounts service.AccountService, reports service.ReportService, logger *logrus.Logger) *PatientHandler {
	return &PatientHandler{bookings: bookings, accounts: accounts, reports: reports, Logger: logger}
}

func (h *PatientHandler) ListDoctors(c *gin.Context) {
	doctors, err := h.accounts.ListDoctors()
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctors": doctors})
}

// AvailableSlots returns the bookable HH:MM times for one doctor and date.
func (h *PatientHandler) AvailableSlots(c *gin.Context) {
	doctorID, err := parseUint(c.Query("doctorId"))
	if err != nil || c.Query("date") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "doctorId and date are required"})
		return
	}
	slots, err := h.bookings.AvailableSlots(doctorID, c.Query("date"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

type bookingRequest struct {
	DoctorID uint   `json:"doctorId"`
	Datetime string `json:"datetime"`
	Reason   string `json:"reason"`
}

func (h *PatientHandler) CreateAppointment(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.DoctorID == 0 || req.Datetime == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "doctorId and datetime are required"})
		return
	}
	appt, err := h.bookings.RequestBooking(middleware.UserID(c), req.DoctorID, req.Datetime, req.Reason)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Appointment requested", "appointment": appt})
}

func (h *PatientHandler) MyAppointments(c *gin.Context) {
	appts, err := h.bookings.PatientAppointments(middleware.UserID(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

func (h *PatientHandler) CancelAppointment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.bookings.Cancel(middleware.UserID(c), id); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment cancelled"})
}

func (h *PatientHandler) MyReports(c *gin.Context) {
	reports, err := h.reports.ListByPatient(middleware.UserID(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}
