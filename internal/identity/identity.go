package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// ErrUnauthenticated is returned when a bearer credential resolves to no user.
var ErrUnauthenticated = errors.New("unauthenticated")

// Resolver maps an inbound bearer credential to a user identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// SessionResolver resolves bearer tokens against the sessions table.
type SessionResolver struct {
	db *sqlx.DB
}

// NewSessionResolver creates a database-backed Resolver.
func NewSessionResolver(db *sqlx.DB) *SessionResolver {
	return &SessionResolver{db: db}
}

// Resolve returns the user id owning an unexpired session token.
func (r *SessionResolver) Resolve(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnauthenticated
	}

	query := `
		SELECT user_id
		FROM sessions
		WHERE token = $1 AND expires_at > NOW()
	`

	var userID string
	err := r.db.GetContext(ctx, &userID, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrUnauthenticated
		}
		return "", fmt.Errorf("failed to resolve session: %w", err)
	}

	return userID, nil
}
