package dto

import (
	"time"

	"github.com/spec-kit/shop-service/internal/domain"
)

// UserRegisterRequest payload for new users.
type UserRegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// UserLoginRequest payload for login. Identifier takes either a username or an
// email; the username and email fields are accepted as aliases.
type UserLoginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

// LoginIdentifier returns the first identifier the client supplied.
func (r UserLoginRequest) LoginIdentifier() string {
	switch {
	case r.Identifier != "":
		return r.Identifier
	case r.Email != "":
		return r.Email
	default:
		return r.Username
	}
}

// UserUpdateRequest is a partial profile update. Omitted or blank fields are
// left unchanged.
type UserUpdateRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	Status    *string `json:"status"`
}

// AuthResponse is returned by login and registration.
type AuthResponse struct {
	Message   string    `json:"message"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Status    string    `json:"status"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewAuthResponse builds the auth payload for a user and its issued token.
func NewAuthResponse(message string, user *domain.User, token *domain.Token) AuthResponse {
	return AuthResponse{
		Message:   message,
		UserID:    user.ID,
		Username:  user.Username,
		Status:    string(user.Status),
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
	}
}

// UserResponse is the public view of an account. The password hash never leaves
// the service.
type UserResponse struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Status:    string(u.Status),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Address:   u.Address,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NewUserListResponse maps a slice of domain users.
func NewUserListResponse(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
