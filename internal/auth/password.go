package auth

import "golang.org/x/crypto/bcrypt"

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// DefaultPasswordFor is the credential given to accounts created at checkout:
// the password equals the e-mail address, so first-time buyers can sign in
// without having chosen one. It is intentionally weak.
func DefaultPasswordFor(email string) string {
	return email
}
