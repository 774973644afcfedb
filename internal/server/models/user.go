// Package models defines server-side data models persisted in the database.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
)

// Source records how an account was created. External accounts have no
// password hash.
type Source string

const (
	SourceEmail    Source = "email"
	SourceExternal Source = "external"
)

type User struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Status           Status     `json:"status"`
	Source           Source     `json:"source"`
	LastLogin        *time.Time `json:"lastLogin,omitempty"`
	RegistrationDate time.Time  `json:"registrationDate"`
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

func (u *User) Active() bool {
	return u.Status == StatusActive
}

// NormalizeEmail trims and lowercases an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidStatus(s Status) bool {
	return s == StatusActive || s == StatusBlocked
}

func ValidSource(s Source) bool {
	return s == SourceEmail || s == SourceExternal
}

// ValidID reports whether id is a well-formed user identifier.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ParseID returns id in canonical lowercase hyphenated form, so "{A...}",
// "urn:uuid:a..." and "a..." compare equal.
func ParseID(id string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
