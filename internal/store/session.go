package store

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/ajohnson23/runcoach/internal/models"
)

// LoadSession returns the persisted auth token, if any. Storage errors are
// logged and treated as "no session" — the client degrades to the
// unauthenticated state rather than failing.
func (s *Store) LoadSession() (string, bool) {
	var sess models.Session
	if err := s.db.First(&sess).Error; err != nil {
		// An absent row is the normal logged-out state, not an error.
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("store: load session: %v", err)
		}
		return "", false
	}
	if sess.Token == "" {
		return "", false
	}
	return sess.Token, true
}

// SaveSession persists the auth token, replacing any previous one. Failures
// are logged, not surfaced: a failed save leaves the user logged in for this
// process run only.
func (s *Store) SaveSession(token string) {
	if err := s.db.Where("1 = 1").Delete(&models.Session{}).Error; err != nil {
		log.Printf("store: clear previous session: %v", err)
	}
	sess := models.Session{Token: token, CreatedAt: time.Now()}
	if err := s.db.Create(&sess).Error; err != nil {
		log.Printf("store: save session: %v", err)
	}
}

// ClearSession removes the persisted auth token. Failures are logged, not
// surfaced.
func (s *Store) ClearSession() {
	if err := s.db.Where("1 = 1").Delete(&models.Session{}).Error; err != nil {
		log.Printf("store: clear session: %v", err)
	}
}

// Token implements the API client's token source: the persisted session
// token is attached to outgoing requests whenever one is present.
func (s *Store) Token() (string, bool) {
	return s.LoadSession()
}
