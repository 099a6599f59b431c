package models

import "time"

// AccessAuth is the intent tag carried by session tokens.
const AccessAuth = "auth"

// User represents a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	Tokens       []Token   `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// Token is one active session of a user. A user may hold several at once,
// one per device.
type Token struct {
	Access    string     `json:"access"`
	Token     string     `json:"token"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"` // nil when tokens never expire
}

// HasToken reports whether the user holds a token with the given access and value.
func (u *User) HasToken(access, token string) bool {
	for _, t := range u.Tokens {
		if t.Access == access && t.Token == token {
			return true
		}
	}
	return false
}
