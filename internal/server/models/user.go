// Package models defines the persistent server-side records.
package models

// User is an account record. Email is the unique lookup key;
// PasswordDigest is the hex SHA-256 digest of the password; the clear
// text is never stored.
type User struct {
	ID             string
	Email          string
	Username       string
	PasswordDigest string
}
