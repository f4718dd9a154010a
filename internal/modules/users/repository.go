package users

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles users database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new users repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "users").Logger(),
	}
}

// GetByID returns a user by primary key, or nil when absent
func (r *Repository) GetByID(id int64) (*User, error) {
	return r.getOne("SELECT id, email, password_hash, first_name, last_name, created_at, updated_at FROM users WHERE id = ?", id)
}

// GetByEmail returns a user by email, or nil when absent
func (r *Repository) GetByEmail(email string) (*User, error) {
	return r.getOne("SELECT id, email, password_hash, first_name, last_name, created_at, updated_at FROM users WHERE email = ?", email)
}

// Insert creates a user and sets its ID
func (r *Repository) Insert(u *User) error {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.CreatedAt.UTC().Format(time.RFC3339),
		u.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}
	u.ID = id

	r.log.Info().Int64("id", id).Str("email", u.Email).Msg("User created")
	return nil
}

// Update persists the mutable fields of a user
func (r *Repository) Update(u *User) error {
	query := `
		UPDATE users
		SET email = ?, password_hash = ?, first_name = ?, last_name = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		u.UpdatedAt.UTC().Format(time.RFC3339),
		u.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// Delete removes a user, reporting whether a row existed
func (r *Repository) Delete(id int64) (bool, error) {
	result, err := r.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

func (r *Repository) getOne(query string, arg interface{}) (*User, error) {
	rows, err := r.db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var u User
	var createdAt, updatedAt string
	if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if u.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("invalid stored created_at %q: %w", createdAt, err)
	}
	if u.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("invalid stored updated_at %q: %w", updatedAt, err)
	}

	return &u, nil
}
