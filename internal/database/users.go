package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"git.sr.ht/~jakintosh/gallery/internal/service"
)

func (s *SQLiteStore) UserStore() service.UserStore {
	return s
}

func (s *SQLiteStore) InsertUserIfAbsent(
	id string,
	email string,
	at time.Time,
) (
	bool,
	error,
) {
	result, err := s.db.Exec(`
		INSERT INTO account (id, email, created_at)
		VALUES (?1, ?2, ?3)
		ON CONFLICT (id) DO NOTHING;`,
		id,
		email,
		toTimestamp(at),
	)
	if err != nil {
		return false, fmt.Errorf("couldn't insert into account: %v", err)
	}
	return !resultsEmpty(result), nil
}

// GetUser returns the user, or nil when there is none.
func (s *SQLiteStore) GetUser(
	id string,
) (
	*service.User,
	error,
) {
	row := s.db.QueryRow(`
		SELECT id, email, created_at
		FROM account
		WHERE id=?1;`,
		id,
	)

	var user service.User
	var createdAt int64
	err := row.Scan(&user.ID, &user.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("couldn't scan account: %v", err)
	}
	user.CreatedAt = fromTimestamp(createdAt)
	return &user, nil
}
