package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/aestheticclinic/clinic-backend/internal/domain"
	"github.com/aestheticclinic/clinic-backend/internal/repository"
)

const tokenTTL = 7 * 24 * time.Hour

type AuthClaims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

type AuthService interface {
	RegisterPatient(name, email, password string) (*domain.User, string, error)
	Login(email, password, role string) (*domain.User, string, error)
	Me(userID uint) (*domain.User, error)
}

type authService struct {
	users  repository.UserRepository
	secret []byte
	Logger *logrus.Logger
}

func NewAuthService(users repository.UserRepository, secret string, logger *logrus.Logger) AuthService {
	return &authService{users: users, secret: []byte(secret), Logger: logger}
}

func (s *authService) RegisterPatient(name, email, password string) (*domain.User, string, error) {
	if name == "" || email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: name, email and password are required", domain.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	user := &domain.User{
		Name:     name,
		Email:    email,
		Password: string(hash),
		Role:     domain.RolePatient,
	}
	if err := s.users.Create(user); err != nil {
		return nil, "", err
	}
	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	s.Logger.WithFields(logrus.Fields{
		"Function": "RegisterPatient",
		"UserId":   user.ID,
		"Email":    email,
	}).Info("Patient registered")
	return user, token, nil
}

// Login authenticates within a single role namespace; a doctor cannot log
// in through the patient endpoint even with valid credentials.
func (s *authService) Login(email, password, role string) (*domain.User, string, error) {
	user, err := s.users.FindByEmailAndRole(email, role)
	if err != nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	s.Logger.WithFields(logrus.Fields{
		"Function": "Login",
		"UserId":   user.ID,
		"Role":     role,
	}).Info("User logged in")
	return user, token, nil
}

func (s *authService) Me(userID uint) (*domain.User, error) {
	return s.users.FindByID(userID)
}

func (s *authService) issueToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := AuthClaims{
		Role: user.Role,
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
