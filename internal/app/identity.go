package app

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"math-quiz-service/internal/domain"
)

// IdentityService handles name-based login. There are no passwords: a session
// is a teacher only when the caller asks for it and uses the designated name.
type IdentityService struct {
	sessions    SessionRepository
	teacherName string
}

func NewIdentityService(sessions SessionRepository, teacherName string) *IdentityService {
	return &IdentityService{sessions: sessions, teacherName: teacherName}
}

// Login creates and persists a session for name.
func (s *IdentityService) Login(ctx context.Context, name string, teacherRequested bool) (domain.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Session{}, domain.ErrInvalidName
	}
	session := domain.Session{
		ID:          uuid.NewString(),
		IsTeacher:   teacherRequested && s.teacherName != "" && name == s.teacherName,
		StudentName: name,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

// Current restores a previously saved session.
func (s *IdentityService) Current(ctx context.Context, sessionID string) (domain.Session, error) {
	if sessionID == "" {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return s.sessions.Get(ctx, sessionID)
}

// Logout drops the session. Unknown ids are ignored.
func (s *IdentityService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

func requireTeacher(session domain.Session) error {
	if !session.IsTeacher {
		return domain.ErrForbidden
	}
	return nil
}

func requireStudent(session domain.Session) error {
	if session.StudentName == "" {
		return domain.ErrUnauthenticated
	}
	if session.IsTeacher {
		return domain.ErrForbidden
	}
	return nil
}
