// Package account provides marketplace user registration and login.
package account

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User is a registered marketplace member. Every user can both buy
// and publish products.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterInput is the validated registration payload.
type RegisterInput struct {
	Username string `validate:"required,alphanum,min=3,max=30"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=72"`
}

// Repository persists users.
type Repository interface {
	Create(u *User) error
	ByID(id string) (*User, bool)
	ByUsername(username string) (*User, bool)
	ByEmail(email string) (*User, bool)
}

// ErrDuplicate is returned when a username or email is already taken.
var ErrDuplicate = fmt.Errorf("account already exists")

// ErrInvalidCredentials is returned by Authenticate on a bad
// username/password pair.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials")

// MemoryRepository is an in-process user store.
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[string]*User
	byName map[string]*User
	byMail map[string]*User
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[string]*User),
		byName: make(map[string]*User),
		byMail: make(map[string]*User),
	}
}

// Create implements Repository.
func (r *MemoryRepository) Create(u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := strings.ToLower(u.Username)
	mail := strings.ToLower(u.Email)
	if _, taken := r.byName[name]; taken {
		return fmt.Errorf("username %q: %w", u.Username, ErrDuplicate)
	}
	if _, taken := r.byMail[mail]; taken {
		return fmt.Errorf("email %q: %w", u.Email, ErrDuplicate)
	}
	r.byID[u.ID] = u
	r.byName[name] = u
	r.byMail[mail] = u
	return nil
}

// ByID implements Repository.
func (r *MemoryRepository) ByID(id string) (*User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	return u, ok
}

// ByUsername implements Repository.
func (r *MemoryRepository) ByUsername(username string) (*User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byName[strings.ToLower(username)]
	return u, ok
}

// ByEmail implements Repository.
func (r *MemoryRepository) ByEmail(email string) (*User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byMail[strings.ToLower(email)]
	return u, ok
}

// Service implements registration and login on top of a repository.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService creates an account service.
func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
	}
}

// Register validates the input, hashes the password, and stores the
// new user.
func (s *Service) Register(in RegisterInput) (*User, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	u := &User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        strings.ToLower(in.Email),
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Create(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks a username/password pair and returns the user.
// The error is deliberately the same for an unknown user and a wrong
// password.
func (s *Service) Authenticate(username, password string) (*User, error) {
	u, ok := s.repo.ByUsername(username)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
