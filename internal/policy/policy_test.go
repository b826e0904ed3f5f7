package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eanlabs/bioplast/internal/models"
)

var (
	admin      = &models.Session{UserID: "a1", Role: models.RoleAdmin}
	instructor = &models.Session{UserID: "i1", Role: models.RoleInstructor}
	student    = &models.Session{UserID: "s1", Role: models.RoleStudent}
	other      = &models.Session{UserID: "s2", Role: models.RoleStudent}
)

func TestCanSee(t *testing.T) {
	assert.True(t, CanSee(admin, "s1"))
	assert.True(t, CanSee(instructor, "s1"))
	assert.True(t, CanSee(student, "s1"), "owner sees their own record")
	assert.False(t, CanSee(other, "s1"), "students do not see each other's records")
	assert.False(t, CanSee(nil, "s1"), "no session, no access")
}

func TestCanEdit(t *testing.T) {
	assert.True(t, CanEdit(admin, "s1"))
	assert.True(t, CanEdit(instructor, "s1"))
	assert.True(t, CanEdit(student, "s1"))
	assert.False(t, CanEdit(other, "s1"))
	assert.False(t, CanEdit(nil, "s1"))
}

func TestCanClose(t *testing.T) {
	open := &models.Experiment{ExperimentNumber: 1, OwnerID: "s1"}
	closed := &models.Experiment{ExperimentNumber: 2, OwnerID: "s1", Closed: true}

	assert.True(t, CanClose(admin, open))
	assert.True(t, CanClose(instructor, open))
	assert.False(t, CanClose(student, open), "owners cannot close their own experiment")
	assert.False(t, CanClose(admin, closed), "closing is one-way")
	assert.False(t, CanClose(admin, nil))
	assert.False(t, CanClose(nil, open))
}

func TestCanDelete(t *testing.T) {
	assert.True(t, CanDelete(admin))
	assert.False(t, CanDelete(instructor), "deletion ignores ownership, only admin role counts")
	assert.False(t, CanDelete(student))
	assert.False(t, CanDelete(nil))
}
