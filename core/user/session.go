package user

import (
	"time"

	"github.com/google/uuid"
)

var NowFunc = time.Now // mockable

// Session is the identity acting on the registries.
// A nil *Session is the unauthenticated caller and is granted nothing.
type Session struct {
	ID        string
	User      User
	StartedAt time.Time
}

func newSession(usr User) *Session {
	return &Session{
		ID:        uuid.NewString(),
		User:      usr,
		StartedAt: NowFunc().UTC(),
	}
}

// NewSession opens a session for an already authenticated user.
func NewSession(usr User) *Session {
	return newSession(usr)
}

func (s *Session) HasPermission(perm Permission) bool {
	if s == nil {
		return false
	}
	return RoleHasPermission(s.User.Role, perm)
}

// SeesAll reports whether the session may list every student's records.
func (s *Session) SeesAll() bool {
	return s != nil && (s.User.IsAdmin() || s.User.IsTeacher())
}

// CanView reports whether records belonging to `studentID` are visible to the session.
func (s *Session) CanView(studentID string) bool {
	if s == nil {
		return false
	}
	if s.SeesAll() {
		return true
	}
	return (s.User.IsStudent() || s.User.IsParent()) && s.User.AssociatedID != "" && s.User.AssociatedID == studentID
}
