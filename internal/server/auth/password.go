package auth

import "golang.org/x/crypto/bcrypt"

// passwordCost is the fixed bcrypt work factor.
const passwordCost = bcrypt.DefaultCost

// HashPassword returns a bcrypt hash of the plaintext password. The plaintext
// never crosses this boundary in the other direction.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext candidate matches the stored
// hash.
func CheckPassword(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
