package db

import (
	"context"
	"time"

	"github.com/shandysiswandi/gopasscode/internal/passcode/entity"
)

// xmax is zero only for a row inserted by the current transaction, which is
// how the upsert tells a first verification from a returning user.
const queryFindOrCreateUser = `
INSERT INTO passcode_users (id, identity, created_at, last_verified_at)
VALUES ($1, $2, $3, $3)
ON CONFLICT (identity) DO UPDATE SET last_verified_at = EXCLUDED.last_verified_at
RETURNING id, identity, created_at, last_verified_at, (xmax = 0) AS inserted`

// FindOrCreateUser creates the user for identity with id, or touches the
// existing one. Concurrent first verifications resolve to a single row.
func (s *DB) FindOrCreateUser(ctx context.Context, id int64, identity string, at time.Time) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "FindOrCreateUser")
	defer func() { s.endSpan(span, err) }()

	var u entity.User
	err = s.mapError(s.conn.QueryRow(ctx, queryFindOrCreateUser, id, identity, at).
		Scan(&u.ID, &u.Identity, &u.CreatedAt, &u.LastVerifiedAt, &u.IsNew))
	if err != nil {
		return nil, err
	}

	return &u, nil
}
