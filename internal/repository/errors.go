package repository

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by every store implementation.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrDuplicateProduct  = errors.New("product name already exists")
	// ErrInvalidReference reports a write that points at a missing row.
	ErrInvalidReference = errors.New("referenced record does not exist")
)

// Named unique constraints declared by the migrations.
const (
	constraintUsername    = "users_username_key"
	constraintEmail       = "users_email_key"
	constraintProductName = "products_name_key"
)

type assignment struct {
	column string
	value  any
}

// setClause renders "col=<ph>, ..." using placeholder(n) for the n-th argument,
// starting at 1.
func setClause(assignments []assignment, placeholder func(n int) string) (string, []any) {
	parts := make([]string, 0, len(assignments))
	args := make([]any, 0, len(assignments))
	for i, a := range assignments {
		parts = append(parts, fmt.Sprintf("%s=%s", a.column, placeholder(i+1)))
		args = append(args, a.value)
	}
	return strings.Join(parts, ", "), args
}

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

func question(int) string { return "?" }
