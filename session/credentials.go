package session

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// CredentialChecker validates a username and password pair.
type CredentialChecker interface {
	Check(username, password string) bool
	Configured() bool
}

// StaticCredentials accepts the single configured admin account. The password may be
// stored as a bcrypt hash.
type StaticCredentials struct {
	username string
	password string
}

func NewStaticCredentials(username, password string) StaticCredentials {
	return StaticCredentials{username: username, password: password}
}

func (s StaticCredentials) Configured() bool {
	return s.username != "" && s.password != ""
}

func (s StaticCredentials) Check(username, password string) bool {
	if !s.Configured() {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	return passwordMatches(s.password, password) && userOK
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func passwordMatches(stored, given string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
