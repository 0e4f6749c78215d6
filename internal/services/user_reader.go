package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/olosevents/backend/internal/database"
	"github.com/olosevents/backend/internal/models"
)

// UserReader reads the profile fields used by eligibility checks.
type UserReader interface {
	GetUser(ctx context.Context, q database.Querier, userID string) (*models.UserSnapshot, error)
}

type PostgresUserReader struct{}

func NewPostgresUserReader() *PostgresUserReader {
	return &PostgresUserReader{}
}

var _ UserReader = (*PostgresUserReader)(nil)

func (r *PostgresUserReader) GetUser(ctx context.Context, q database.Querier, userID string) (*models.UserSnapshot, error) {
	var (
		user   models.UserSnapshot
		age    sql.NullInt64
		gender sql.NullString
	)

	err := q.QueryRowContext(ctx, `
		SELECT id, EXTRACT(YEAR FROM age(date_of_birth))::int, gender
		FROM users
		WHERE id = $1`, userID).Scan(&user.ID, &age, &gender)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}

	user.Age = nullIntPtr(age)
	user.Gender = gender.String
	return &user, nil
}
