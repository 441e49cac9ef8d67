package auth

import "golang.org/x/crypto/bcrypt"

// PasswordVerifier compares a stored password hash against a candidate
// plaintext password.
type PasswordVerifier interface {
	// Compare returns nil when the password matches the hash, or an error
	// when it does not (or the hash is malformed).
	Compare(hashedPassword, password string) error
}

// bcryptVerifier implements PasswordVerifier using bcrypt.
type bcryptVerifier struct{}

// NewBcryptVerifier creates a PasswordVerifier backed by bcrypt.
func NewBcryptVerifier() PasswordVerifier {
	return bcryptVerifier{}
}

// Ensure bcryptVerifier implements PasswordVerifier
var _ PasswordVerifier = bcryptVerifier{}

func (bcryptVerifier) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
