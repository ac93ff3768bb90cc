package auth

import "golang.org/x/crypto/bcrypt"

// Cost is the bcrypt work factor; tests lower it.
var Cost = bcrypt.DefaultCost

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), Cost)
	return string(b), err
}

// CheckPassword compares a bcrypt hash with a candidate plaintext password.
func CheckPassword(hash, pw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
}
