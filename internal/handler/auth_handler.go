package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/aestheticclinic/clinic-backend/internal/middleware"
	"github.com/aestheticclinic/clinic-backend/internal/service"
)

const cookieMaxAge = 7 * 24 * 60 * 60

func parseUint(s string) (uint, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	return uint(v), err
}

type AuthHandler struct {
	auth   service.AuthService
	Logger *logrus.Logger
}

func NewAuthHandler(auth service.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, Logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func setTokenCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("token", token, cookieMaxAge, "/", "", false, true)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}
	user, token, err := h.auth.RegisterPatient(req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	setTokenCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registered",
		"user":    gin.H{"name": user.Name, "email": user.Email, "role": user.Role},
	})
}

func (h *AuthHandler) Login(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		user, token, err := h.auth.Login(req.Email, req.Password, role)
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		setTokenCookie(c, token)
		c.JSON(http.StatusOK, gin.H{
			"message": "Logged in",
			"user":    gin.H{"name": user.Name, "email": user.Email, "role": user.Role},
		})
	}
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.auth.Me(middleware.UserID(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
