package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is bcrypt's input limit; longer input is an error, not
// silently truncated.
const maxPasswordBytes = 72

// ErrPasswordTooLong is returned for account passwords that do not fit bcrypt.
// Length validation on request bodies counts characters, so multi-byte
// passwords can pass it and still land here.
var ErrPasswordTooLong = errors.New("password must be at most 72 bytes")

// HashPassword hashes an account password.  cost is clamped to the range
// bcrypt accepts so a mistyped BCRYPT_COST cannot fail every registration.
func HashPassword(plain string, cost int) (string, error) {
	if len(plain) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	switch {
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash.  A blank
// hash never matches.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
