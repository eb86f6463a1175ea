package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/aestheticclinic/clinic-backend/internal/domain"
	"github.com/aestheticclinic/clinic-backend/internal/middleware"
	"github.com/aestheticclinic/clinic-backend/internal/service"
)

type DoctorHandler struct {
	bookings service.BookingService
	profiles service.ProfileService
	reports  service.ReportService
	Logger   *logrus.Logger
}

func NewDoctorHandler(bookings service.BookingService, profiles service.ProfileService, reports service.ReportService, logger *logrus.Logger) *DoctorHandler {
	return &DoctorHandler{bookings: bookings, profiles: profiles, reports: reports, Logger: logger}
}

func (h *DoctorHandler) GetProfile(c *gin.Context) {
	user, profile, err := h.profiles.GetProfile(middleware.UserID(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}

type profileRequest struct {
	Specialty         string                      `json:"specialty"`
	Fee               float64                     `json:"fee"`
	MaxPatientsPerDay int                         `json:"maxPatientsPerDay"`
	Availability      []domain.AvailabilityWindow `json:"availability"`
}

func (h *DoctorHandler) SaveProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	profile, err := h.profiles.SaveProfile(middleware.UserID(c), service.ProfileInput{
		Specialty:         req.Specialty,
		Fee:               req.Fee,
		MaxPatientsPerDay: req.MaxPatientsPerDay,
		Availability:      req.Availability,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile saved", "profile": profile})
}

func (h *DoctorHandler) MyAppointments(c *gin.Context) {
	appts, err := h.bookings.DoctorAppointments(middleware.UserID(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *DoctorHandler) SetStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	appt, err := h.bookings.SetStatus(middleware.UserID(c), id, req.Status)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated", "appointment": appt})
}

func (h *DoctorHandler) DeleteAppointment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.bookings.DeleteAsDoctor(middleware.UserID(c), id); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted"})
}

type reportRequest struct {
	PatientID uint   `json:"patientId"`
	Title     string `json:"title"`
	Notes     string `json:"notes"`
	FileURL   string `json:"fileUrl"`
}

func (h *DoctorHandler) CreateReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	report, err := h.reports.Create(middleware.UserID(c), req.PatientID, req.Title, req.Notes, req.FileURL)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Report created", "report": report})
}

func (h *DoctorHandler) MyReports(c *gin.Context) {
	reports, err := h.reports.ListByDoctor(middleware.UserID(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}
