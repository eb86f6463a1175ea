package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/aestheticclinic/clinic-backend/internal/service"
)

// PublicHandler serves the unauthenticated endpoints: the doctor listing
// for the landing page and the contact form.
type PublicHandler struct {
	accounts service.AccountService
	contacts service.ContactService
	Logger   *logrus.Logger
}

func NewPublicHandler(accounts service.AccountService, contacts service.ContactService, logger *logrus.Logger) *PublicHandler {
	return &PublicHandler{accounts: accounts, contacts: contacts, Logger: logger}
}

func (h *PublicHandler) ListDoctors(c *gin.Context) {
	doctors, err := h.accounts.ListDoctors()
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, doctors)
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (h *PublicHandler) SubmitContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	inquiry, err := h.contacts.Submit(req.Name, req.Email, req.Message)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Thanks! We've received your message.",
		"inquiry": gin.H{"id": inquiry.ID},
	})
}
