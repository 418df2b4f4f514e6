package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/generalexpress/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ErrUserExists indicates a registration with an email already taken
var ErrUserExists = errors.New("user already exists")

// UserRepository handles user database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// CreateUser creates a new user with the customer role
func (r *UserRepository) CreateUser(email, phone, fullName, passwordHash string) (*models.User, error) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		Phone:        phone,
		FullName:     fullName,
		PasswordHash: passwordHash,
		Role:         models.RoleCustomer,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	query := `
		INSERT INTO users (
			id, email, phone, full_name, password_hash, role, is_active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(
		query,
		user.ID,
		user.Email,
		user.Phone,
		user.FullName,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, phone, full_name, password_hash, role, is_active,
		       created_at, updated_at
		FROM users
		WHERE email = $1
	`

	err := r.db.Get(user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, phone, full_name, password_hash, role, is_active,
		       created_at, updated_at
		FROM users
		WHERE id = $1
	`

	err := r.db.Get(user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}
