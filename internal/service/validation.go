package service

import (
	"errors"
	"net/mail"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/spec-kit/shop-service/internal/repository"
	apperrors "github.com/spec-kit/shop-service/pkg/util/errorutil"
)

const maxUsernameLength = 64

func normalizeUsername(s string) string {
	return strings.TrimSpace(s)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// validateUsername keeps usernames disjoint from emails so a login identifier
// resolves to at most one account.
func validateUsername(username string) error {
	if username == "" {
		return apperrors.NewValidationError("username is required", map[string]any{"field": "username"})
	}
	if len(username) > maxUsernameLength {
		return apperrors.NewValidationError("username is too long", map[string]any{"field": "username"})
	}
	if strings.ContainsRune(username, '@') || strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return apperrors.NewValidationError("username may not contain '@' or whitespace", map[string]any{"field": "username"})
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return apperrors.NewValidationError("email is required", map[string]any{"field": "email"})
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperrors.NewValidationError("email is invalid", map[string]any{"field": "email"})
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return apperrors.NewValidationError("password is required", map[string]any{"field": "password"})
	}
	if len(password) > 72 {
		return apperrors.NewValidationError("password must be at most 72 bytes", map[string]any{"field": "password"})
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// nonEmpty returns a pointer to the trimmed value, or nil when nothing was submitted.
func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// mapStoreError translates repository sentinels into API errors.
func mapStoreError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrDuplicateUsername):
		return apperrors.NewConflict("DUPLICATE_USERNAME", "username already exists")
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperrors.NewConflict("DUPLICATE_EMAIL", "email already exists")
	case errors.Is(err, repository.ErrDuplicateProduct):
		return apperrors.NewConflict("DUPLICATE_PRODUCT", "product name already exists")
	case errors.Is(err, repository.ErrInvalidReference):
		return apperrors.NewValidationError("referenced record does not exist", nil)
	default:
		return apperrors.NewInternalError(err)
	}
}
