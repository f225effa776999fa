package domain

import "time"

// UserStatus is the authorization role stored for every account.
type UserStatus string

const (
	UserStatusStandard UserStatus = "standard"
	UserStatusAdmin    UserStatus = "admin"
)

// Valid reports whether s is one of the known roles.
func (s UserStatus) Valid() bool {
	return s == UserStatusStandard || s == UserStatusAdmin
}

// IsAdmin reports whether the role grants access to other accounts.
func (s UserStatus) IsAdmin() bool {
	return s == UserStatusAdmin
}

// User is the domain model for shop customers and administrators.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Status       UserStatus
	FirstName    string
	LastName     string
	Phone        string
	Address      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserPatch carries a partial update. Nil fields are left untouched.
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
	Status       *UserStatus
	FirstName    *string
	LastName     *string
	Phone        *string
	Address      *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.PasswordHash == nil && p.Status == nil &&
		p.FirstName == nil && p.LastName == nil && p.Phone == nil && p.Address == nil
}
