// Package tokens signs and parses the HS256 access and refresh JWTs.
package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnexpectedSigningMethod = errors.New("unexpected sign method")

// AccessClaims identify the caller of a single request.
type AccessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// RefreshClaims carry only the subject and a unique jti.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

func keyFunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrUnexpectedSigningMethod
		}
		return secret, nil
	}
}

// Digest is the form a refresh token is persisted in.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
