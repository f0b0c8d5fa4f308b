package planner

import (
	"context"
	"errors"
	"strings"
)

// Authenticate resolves a session token to its user. Unknown or expired
// tokens yield ErrUnauthenticated.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}
	sess, err := s.store.GetSession(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if !sess.Valid(s.now()) {
		return nil, ErrUnauthenticated
	}

	u, err := s.store.GetUser(ctx, sess.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	return u, err
}
