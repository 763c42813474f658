package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewVerifiedUser(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))

	user, err := NewVerifiedUser("  Alice@Example.COM ", "$2a$10$hash", now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Expected normalized email, got %s", user.Email)
	}
	if !user.EmailVerified {
		t.Error("Expected user to be verified")
	}
	if !user.CreatedAt.Equal(now) || user.CreatedAt.Location() != time.UTC {
		t.Errorf("Expected CreatedAt %v in UTC, got %v", now, user.CreatedAt)
	}

	if _, err := NewVerifiedUser("", "$2a$10$hash", now); err != ErrEmptyEmail {
		t.Errorf("Expected error %v, got %v", ErrEmptyEmail, err)
	}
	if _, err := NewVerifiedUser("not-an-email", "$2a$10$hash", now); err != ErrInvalidEmail {
		t.Errorf("Expected error %v, got %v", ErrInvalidEmail, err)
	}
	if _, err := NewVerifiedUser("bob@example.com", "", now); err != ErrEmptyHashedPassword {
		t.Errorf("Expected error %v, got %v", ErrEmptyHashedPassword, err)
	}
}

func TestUserValidate(t *testing.T) {
	valid := User{ID: uuid.New(), Email: "test@example.com", HashedPassword: "hash"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	noID := valid
	noID.ID = uuid.Nil
	if err := noID.Validate(); err != ErrInvalidID {
		t.Errorf("Expected error %v, got %v", ErrInvalidID, err)
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     error
	}{
		{"empty", "", ErrEmptyPassword},
		{"too short", "short", ErrPasswordTooShort},
		{"minimum", "12345678", nil},
		{"maximum", strings.Repeat("a", 72), nil},
		{"too long", strings.Repeat("a", 73), ErrPasswordTooLong},
		// 25 three-byte runes are 75 bytes.
		{"multibyte over limit", strings.Repeat("€", 25), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidatePassword(tt.password); got != tt.want {
				t.Errorf("ValidatePassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("\tUser@Mail.Example.org \n"); got != "user@mail.example.org" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}
