package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/fetcharr/fetcharrctl/internal/database"
)

type User struct {
	ID       int
	Username string
	Password string
}

// UserStore reads and writes the users table of an application store.
type UserStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

func NewUserStore(db *sql.DB, dialect database.Dialect) *UserStore {
	return &UserStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(dialect.Placeholder()),
	}
}

// FindByUsername returns nil without error when no user matches.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	query, args, err := s.builder.
		Select("id", "username", "password").
		From("users").
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}

	var user User
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.Username, &user.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", username, err)
	}
	return &user, nil
}

// Store inserts a new user with an already-hashed password.
func (s *UserStore) Store(ctx context.Context, username, hashedPassword string) error {
	query, args, err := s.builder.
		Insert("users").
		Columns("username", "password").
		Values(username, hashedPassword).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create user %s: %w", username, err)
	}
	return nil
}

// UpdatePassword replaces the stored hash for an existing user.
func (s *UserStore) UpdatePassword(ctx context.Context, username, hashedPassword string) error {
	query, args, err := s.builder.
		Update("users").
		Set("password", hashedPassword).
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build password update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update password for %s: %w", username, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s not found", username)
	}
	return nil
}
