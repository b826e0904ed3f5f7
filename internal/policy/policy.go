// Role and ownership predicates. All predicates take the acting session
// explicitly and hold no state, so every call reflects the session the
// caller currently has, not the one it had earlier.
package policy

import "github.com/eanlabs/bioplast/internal/models"

// CanSee reports whether the session may read a record owned by ownerID.
// Admins and instructors see everything; students see their own.
func CanSee(s *models.Session, ownerID string) bool {
	if s == nil {
		return false
	}
	if s.IsAdmin() || s.IsInstructor() {
		return true
	}
	return ownerID == s.UserID
}

// CanEdit follows the same rule as CanSee.
func CanEdit(s *models.Session, ownerID string) bool {
	return CanSee(s, ownerID)
}

// CanClose allows admins and instructors to close an experiment that is
// still open. Closing is one-way; there is no reopen.
func CanClose(s *models.Session, exp *models.Experiment) bool {
	if exp == nil || exp.Closed {
		return false
	}
	return s.IsAdmin() || s.IsInstructor()
}

// CanDelete is admin-only. Ownership does not matter for deletion.
func CanDelete(s *models.Session) bool {
	return s.IsAdmin()
}
