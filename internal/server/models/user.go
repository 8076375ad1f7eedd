package models

import "time"

// User is a stored account. PasswordHash is the bcrypt digest; the plaintext
// password never reaches this type.
type User struct {
	ID           int64
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}
