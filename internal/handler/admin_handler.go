package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/aestheticclinic/clinic-backend/internal/service"
)

type AdminHandler struct {
	accounts service.AccountService
	contacts service.ContactService
	Logger   *logrus.Logger
}

func NewAdminHandler(accounts service.AccountService, contacts service.ContactService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{accounts: accounts, contacts: contacts, Logger: logger}
}

type doctorRequest struct {
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Specialty string  `json:"specialty"`
	Fee       float64 `json:"fee"`
}

func (h *AdminHandler) CreateDoctor(c *gin.Context) {
	var req doctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	doctor, err := h.accounts.CreateDoctor(service.DoctorInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Specialty: req.Specialty,
		Fee:       req.Fee,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Doctor created", "id": doctor.ID})
}

func (h *AdminHandler) UpdateDoctor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req doctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	err := h.accounts.UpdateDoctor(id, service.DoctorInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Specialty: req.Specialty,
		Fee:       req.Fee,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Doctor updated"})
}

func (h *AdminHandler) DeleteDoctor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.accounts.DeleteDoctor(id); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Doctor deleted"})
}

func (h *AdminHandler) ListPatients(c *gin.Context) {
	patients, err := h.accounts.ListPatients()
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": patients})
}

func (h *AdminHandler) DeletePatient(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.accounts.DeletePatient(id); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Patient deleted"})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.accounts.ListUsers()
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.accounts.Stats()
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": stats})
}

func (h *AdminHandler) ListInquiries(c *gin.Context) {
	inquiries, err := h.contacts.List()
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inquiries": inquiries})
}

type markReadRequest struct {
	Read bool `json:"read"`
}

func (h *AdminHandler) MarkInquiryRead(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	inquiry, err := h.contacts.MarkRead(id, req.Read)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inquiry": inquiry})
}

func (h *AdminHandler) DeleteInquiry(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.contacts.Delete(id); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Inquiry deleted"})
}
