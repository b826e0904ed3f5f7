// User registry over the key-value store: registration, role/active
// toggles, and demo-grade password login.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eanlabs/bioplast/internal/models"
	"github.com/eanlabs/bioplast/internal/store"
)

var (
	ErrEmailTaken    = errors.New("email is already registered")
	ErrUserNotFound  = errors.New("user not found")
	ErrUserInactive  = errors.New("user is inactive")
	ErrWrongPassword = errors.New("wrong password")
)

type Users struct {
	kv  store.KV
	now func() time.Time
}

func NewUsers(kv store.KV) *Users {
	return &Users{kv: kv, now: time.Now}
}

func (u *Users) List() ([]models.User, error) {
	var users []models.User
	if err := store.ReadJSON(u.kv, store.KeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Register adds a new account. Emails are unique case-insensitively; a
// duplicate fails loudly instead of overwriting the existing user.
func (u *Users) Register(user models.User) (*models.User, error) {
	if user.Role == "" {
		user.Role = models.RoleStudent
	}
	user.ID = uuid.NewString()
	user.CreatedAt = u.now().UTC()

	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("invalid user: %w", err)
	}

	users, err := u.List()
	if err != nil {
		return nil, err
	}
	for _, existing := range users {
		if strings.EqualFold(existing.Email, user.Email) {
			return nil, ErrEmailTaken
		}
	}

	users = append(users, user)
	if err := store.WriteJSON(u.kv, store.KeyUsers, users); err != nil {
		return nil, err
	}
	return &user, nil
}

// Update merges the non-nil fields of update into the stored account.
// Returns nil when the id is unknown.
func (u *Users) Update(id string, update models.UserUpdate) (*models.User, error) {
	users, err := u.List()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID != id {
			continue
		}
		if update.Name != nil {
			users[i].Name = *update.Name
		}
		if update.Role != nil {
			users[i].Role = *update.Role
		}
		if update.Password != nil {
			users[i].Password = *update.Password
		}
		if update.Active != nil {
			users[i].Active = *update.Active
		}
		if err := store.WriteJSON(u.kv, store.KeyUsers, users); err != nil {
			return nil, err
		}
		return &users[i], nil
	}
	return nil, nil
}

func (u *Users) Delete(id string) error {
	users, err := u.List()
	if err != nil {
		return err
	}
	kept := users[:0:0]
	for _, user := range users {
		if user.ID != id {
			kept = append(kept, user)
		}
	}
	return store.WriteJSON(u.kv, store.KeyUsers, kept)
}

// Authenticate checks the email/password pair and returns the matching
// active user.
func (u *Users) Authenticate(email, password string) (*models.User, error) {
	users, err := u.List()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if !strings.EqualFold(users[i].Email, email) {
			continue
		}
		if !users[i].Active {
			return nil, ErrUserInactive
		}
		if users[i].Password != password {
			return nil, ErrWrongPassword
		}
		return &users[i], nil
	}
	return nil, ErrUserNotFound
}

// EnsureDefaultAdmin seeds the admin account on first run so a fresh store
// is never locked out. Existing accounts with the seed email are left
// alone.
func (u *Users) EnsureDefaultAdmin(name, email, password string) error {
	if email == "" {
		return nil
	}

	users, err := u.List()
	if err != nil {
		return err
	}
	for _, existing := range users {
		if strings.EqualFold(existing.Email, email) {
			return nil
		}
	}

	_, err = u.Register(models.User{
		Name:     name,
		Email:    email,
		Role:     models.RoleAdmin,
		Password: password,
		Active:   true,
	})
	return err
}
