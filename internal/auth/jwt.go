// Package auth signs the bearer tokens attached to uploads so the receiver
// can attribute a record to the editor who captured it.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrEmptySecret = errors.New("signing secret is empty")

// DefaultValidity is used by a Signer without an explicit validity.
const DefaultValidity = 15 * time.Minute

// Claims carries the standard claims plus the editor identity.
type Claims struct {
	jwt.RegisteredClaims
	Editor string `json:"editor"`
}

// GenerateToken signs an HS256 token for editor valid for validity.
func GenerateToken(editor string, secret []byte, validity time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   editor,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Editor: editor,
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Signer produces tokens for the upload client. A zero Signer (no secret)
// is disabled and yields no token.
type Signer struct {
	Secret   []byte
	Validity time.Duration
}

// Enabled reports whether a secret is configured.
func (s Signer) Enabled() bool { return len(s.Secret) > 0 }

// Token returns "" when the signer is disabled.
func (s Signer) Token(editor string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	validity := s.Validity
	if validity <= 0 {
		validity = DefaultValidity
	}
	return GenerateToken(editor, s.Secret, validity)
}
