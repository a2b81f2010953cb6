package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Calendar is a shared board that sessions are scoped to.
type Calendar struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	PasscodeHash string    `db:"passcode_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// SessionClaims is the JWT payload of a calendar session token.
type SessionClaims struct {
	CalendarID string `json:"calendar_id"`
	jwt.RegisteredClaims
}

// SessionToken is returned when a calendar session is opened.
type SessionToken struct {
	AccessToken string    `json:"access_token"`
	CalendarID  string    `json:"calendar_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}
