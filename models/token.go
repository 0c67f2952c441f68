package models

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Token wraps a parsed JWT. The SSO token exchange itself happens
// outside this system; the server only validates tokens minted by the
// external identity provider and extracts the owning user from them.
type Token struct {
	// Token is the underlying JWT used for signing and claim access.
	*jwt.Token `json:"-"`

	// RegisteredClaims gives access to the standard claim set (sub,
	// exp, iat, iss, ...) per RFC 7519.
	jwt.RegisteredClaims

	// SignedString is the compact JWS form, ready for an
	// Authorization header.
	SignedString string `json:"-"`

	// UserID caches the parsed "sub" claim.
	UserID int64 `json:"-"`
}

// GetUserID parses the "sub" claim as a base-10 int64 user identifier.
func (t *Token) GetUserID() (int64, error) {
	subject, err := t.GetSubject()
	if err != nil {
		return 0, fmt.Errorf("error extracting user ID from token: %w", err)
	}

	userID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("error converting token subject to int64: %w", err)
	}

	return userID, nil
}

// String returns the compact JWS serialization. Implements
// [fmt.Stringer].
func (t *Token) String() string {
	return t.SignedString
}
