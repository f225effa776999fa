package domain

import "time"

// Token is the metadata of an issued identity token. Tokens are never persisted.
type Token struct {
	Value     string
	UserID    string
	Username  string
	Status    UserStatus
	IssuedAt  time.Time
	ExpiresAt time.Time
}
