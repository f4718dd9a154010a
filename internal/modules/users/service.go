package users

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/findash/findash/internal/domain"
)

// Service implements user lifecycle operations
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new users service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "users").Logger(),
	}
}

// Create registers a new user. Email must be unique; the password is stored
// only as a bcrypt hash.
func (s *Service) Create(ctx context.Context, email, password, firstName, lastName string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.NewValidationError("email", "Invalid email address")
	}
	if len(password) < 8 {
		return nil, domain.NewValidationError("password", "Password must be at least 8 characters")
	}
	if strings.TrimSpace(firstName) == "" {
		return nil, domain.NewValidationError("first_name", "First name is required")
	}
	if strings.TrimSpace(lastName) == "" {
		return nil, domain.NewValidationError("last_name", "Last name is required")
	}

	existing, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.NewValidationError("email", "Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Insert(user); err != nil {
		return nil, err
	}

	return user, nil
}

// Get returns a user by id
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewNotFoundError("user", id)
	}
	return user, nil
}

// Update applies a partial update to name and email fields
func (s *Service) Update(ctx context.Context, id int64, email, firstName, lastName *string) (*User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*email))
		if _, err := mail.ParseAddress(normalized); err != nil {
			return nil, domain.NewValidationError("email", "Invalid email address")
		}
		if normalized != user.Email {
			existing, err := s.repo.GetByEmail(normalized)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, domain.NewValidationError("email", "Email already registered")
			}
			user.Email = normalized
		}
	}
	if firstName != nil {
		if strings.TrimSpace(*firstName) == "" {
			return nil, domain.NewValidationError("first_name", "First name is required")
		}
		user.FirstName = strings.TrimSpace(*firstName)
	}
	if lastName != nil {
		if strings.TrimSpace(*lastName) == "" {
			return nil, domain.NewValidationError("last_name", "Last name is required")
		}
		user.LastName = strings.TrimSpace(*lastName)
	}

	user.UpdatedAt = time.Now()
	if err := s.repo.Update(user); err != nil {
		return nil, err
	}

	return user, nil
}

// ChangePassword verifies the current password and stores a new hash
func (s *Service) ChangePassword(ctx context.Context, id int64, current, next string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return domain.NewValidationError("current_password", "Current password is incorrect")
	}
	if len(next) < 8 {
		return domain.NewValidationError("new_password", "Password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hash)
	user.UpdatedAt = time.Now()
	return s.repo.Update(user)
}

// Delete removes a user and, via cascade, their accounts and holdings
func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.NewNotFoundError("user", id)
	}

	s.log.Info().Int64("id", id).Msg("User deleted")
	return nil
}
