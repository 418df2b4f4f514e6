package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/generalexpress/booking-backend/internal/database"
	"github.com/generalexpress/booking-backend/internal/models"
	"github.com/generalexpress/booking-backend/pkg/jwt"
	"github.com/generalexpress/booking-backend/pkg/validator"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers unknown email and wrong password as one
// externally visible outcome
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserStore is the user persistence surface
type UserStore interface {
	CreateUser(email, phone, fullName, passwordHash string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uuid.UUID) (*models.User, error)
}

// AuthService handles registration, login and token issuance
type AuthService struct {
	users      UserStore
	jwtService *jwt.Service
	contacts   *validator.ContactValidator
	bcryptCost int
	logger     *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, jwtService *jwt.Service, bcryptCost int, logger *logrus.Logger) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		contacts:   validator.NewContactValidator(),
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates a new customer account and returns a token pair
func (s *AuthService) Register(req *models.RegisterRequest) (*models.AuthResponse, error) {
	email, err := s.contacts.ValidateEmail(req.Email)
	if err != nil {
		return nil, &models.ValidationError{Field: "email", Message: err.Error()}
	}

	phone, err := s.contacts.ValidatePhone(req.Phone)
	if err != nil {
		return nil, &models.ValidationError{Field: "phone", Message: err.Error()}
	}

	if len(req.Password) < 8 {
		return nil, &models.ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(email, phone, req.FullName, string(hash))
	if err != nil {
		if errors.Is(err, database.ErrUserExists) {
			return nil, &models.ValidationError{Field: "email", Message: "an account with this email already exists"}
		}
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("User registered")

	return s.issueTokens(user)
}

// Login verifies credentials and returns a token pair
func (s *AuthService) Login(req *models.LoginRequest) (*models.AuthResponse, error) {
	email, err := s.contacts.ValidateEmail(req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in")

	return s.issueTokens(user)
}

// GetProfile returns the account for an authenticated user
func (s *AuthService) GetProfile(userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*models.AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	expiry, err := s.jwtService.GetTokenExpiry(accessToken)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(time.Until(expiry).Seconds()),
	}, nil
}

var _ UserStore = (*database.UserRepository)(nil)
