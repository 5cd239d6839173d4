// Package domain contains the chat entities, no transport or routing logic.
package domain

import "errors"

const MaxIdentityLen = 36

var (
	ErrIdentityEmpty   = errors.New("identity empty")
	ErrIdentityTooLong = errors.New("identity too long")
)

// User is one logged-in client. The identity is assigned by the transport at
// login and is unique among active sessions.
type User struct {
	Identity string `json:"identity"`
}

// NewUser validates the identity up front; a session must never be built
// around an empty name.
func NewUser(identity string) (*User, error) {
	if len(identity) == 0 {
		return nil, ErrIdentityEmpty
	}
	if len(identity) > MaxIdentityLen {
		return nil, ErrIdentityTooLong
	}
	return &User{Identity: identity}, nil
}
