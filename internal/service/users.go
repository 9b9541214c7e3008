package service

import (
	"fmt"
	"log"

	"git.sr.ht/~jakintosh/gallery/pkg/identity"
)

// EnsureUser records a verified user on first sight.
func (s *Service) EnsureUser(claims *identity.Claims) error {
	created, err := s.users.InsertUserIfAbsent(claims.UserID, claims.Email, s.now())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if created {
		log.Printf("created user %s (%s)\n", claims.UserID, claims.Email)
	}
	return nil
}

func (s *Service) GetUser(id string) (*User, error) {
	user, err := s.users.GetUser(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return user, nil
}
