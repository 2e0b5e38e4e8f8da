package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/aryan0dhankhar/taskdesk/internal/domain"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt input limit

	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*"
)

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword reports whether password matches hash.
func ComparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordPolicy enforces the user-chosen password rules.
func ValidatePasswordPolicy(field, password string) error {
	if len(password) < MinPasswordLength {
		return domain.Invalid(field, "must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return domain.Invalid(field, "must be at most %d characters", MaxPasswordLength)
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return domain.Invalid(field, "must contain an uppercase letter, a lowercase letter, a digit and a symbol")
	}
	return nil
}

// GenerateTemporaryPassword builds a random password of length characters
// with at least one of each character class.
func GenerateTemporaryPassword(length int) (string, error) {
	classes := []string{upperChars, lowerChars, digitChars, specialChars}
	if length < len(classes) {
		return "", errors.New("temporary password length too short")
	}
	all := strings.Join(classes, "")

	out := make([]byte, 0, length)
	for _, set := range classes {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	// Fisher-Yates so the guaranteed characters are not always first.
	for i := len(out) - 1; i > 0; i-- {
		j, err := randomInt(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}

func randomChar(set string) (byte, error) {
	i, err := randomInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randomInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return int(v.Int64()), nil
}
