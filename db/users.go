// ABOUTME: User table operations
// ABOUTME: Internal staff records the resolver maps external emails and person ids onto
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/sprintledger/models"
)

// CreateUser inserts a new user. Emails are unique case-insensitively.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = strings.TrimSpace(user.Email)
	if user.Email == "" {
		return fmt.Errorf("user email is required")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, external_person_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, user.ID.String(), user.Email, nullString(user.Name), nullInt64(user.ExternalPersonID), user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}
	return nil
}

// ListUsers returns all users ordered by email.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, name, external_person_id, created_at
		FROM users
		ORDER BY email
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var id string
		var name sql.NullString
		var personID sql.NullInt64
		if err := rows.Scan(&id, &u.Email, &name, &personID, &u.CreatedAt); err != nil {
			return nil, err
		}
		if u.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		u.Name = name.String
		if personID.Valid {
			v := personID.Int64
			u.ExternalPersonID = &v
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
