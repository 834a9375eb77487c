package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password schemes selectable through configuration.
const (
	SchemePlain  = "plain"
	SchemeBcrypt = "bcrypt"
)

// CredentialVerifier checks a submitted password against its stored form.
type CredentialVerifier interface {
	Verify(stored, submitted string) bool
	// Hash converts a plaintext password into what gets stored.
	Hash(plain string) (string, error)
}

// NewVerifier returns the verifier for scheme.
func NewVerifier(scheme string) (CredentialVerifier, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "", SchemePlain:
		return PlainVerifier{}, nil
	case SchemeBcrypt:
		return BcryptVerifier{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
}

// PlainVerifier compares stored plaintext passwords by exact match.
type PlainVerifier struct{}

func (PlainVerifier) Verify(stored, submitted string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

func (PlainVerifier) Hash(plain string) (string, error) { return plain, nil }

// BcryptVerifier stores and checks bcrypt hashes.
type BcryptVerifier struct {
	Cost int
}

func (v BcryptVerifier) Verify(stored, submitted string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(submitted))
	return err == nil
}

func (v BcryptVerifier) Hash(plain string) (string, error) {
	cost := v.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("password too long for bcrypt: %w", err)
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
