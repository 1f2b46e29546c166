package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewUser(t *testing.T) {
	user, err := NewUser("student@example.com", "correct-horse-battery")
	if err != nil {
		t.Fatalf("NewUser returned error: %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("expected a generated user ID")
	}
	if user.Email != "student@example.com" {
		t.Errorf("unexpected email %q", user.Email)
	}
	if user.Password != "correct-horse-battery" {
		t.Error("expected plaintext password to be carried for hashing")
	}
	if user.HashedPassword != "" {
		t.Error("NewUser must not hash the password itself")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestUserValidate(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(u *User)
		expected error
	}{
		{
			name:     "valid user",
			mutate:   func(u *User) {},
			expected: nil,
		},
		{
			name:     "empty ID",
			mutate:   func(u *User) { u.ID = uuid.Nil },
			expected: ErrEmptyUserID,
		},
		{
			name:     "empty email",
			mutate:   func(u *User) { u.Email = "" },
			expected: ErrEmptyEmail,
		},
		{
			name:     "malformed email",
			mutate:   func(u *User) { u.Email = "not-an-email" },
			expected: ErrInvalidEmail,
		},
		{
			name:     "password too short",
			mutate:   func(u *User) { u.Password = "short" },
			expected: ErrPasswordTooShort,
		},
		{
			name:     "password too long",
			mutate:   func(u *User) { u.Password = strings.Repeat("x", 73) },
			expected: ErrPasswordTooLong,
		},
		{
			name: "hashed password only",
			mutate: func(u *User) {
				u.Password = ""
				u.HashedPassword = "$2a$10$abcdefghijklmnopqrstuv"
			},
			expected: nil,
		},
		{
			name: "no password at all",
			mutate: func(u *User) {
				u.Password = ""
				u.HashedPassword = ""
			},
			expected: ErrEmptyPassword,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			user := &User{
				ID:       uuid.New(),
				Email:    "student@example.com",
				Password: "correct-horse-battery",
			}
			tc.mutate(user)

			err := user.Validate()
			if !errors.Is(err, tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, err)
			}
		})
	}
}

func TestUserPasswordBoundaries(t *testing.T) {
	if _, err := NewUser("a@example.com", strings.Repeat("x", 12)); err != nil {
		t.Errorf("12-character password should be accepted: %v", err)
	}
	if _, err := NewUser("a@example.com", strings.Repeat("x", 72)); err != nil {
		t.Errorf("72-character password should be accepted: %v", err)
	}
}
