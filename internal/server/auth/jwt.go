// Package auth implements the token service: issuing and verifying the signed
// bearer credentials that bind a user identity to a request, plus password
// hashing.
package auth

import (
	"strings"
	"time"

	"finledger/internal/common"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer tags every token this service mints; verification rejects tokens
// carrying any other issuer.
const Issuer = "finledger"

// Claims are the assertions embedded in a bearer token: the registered set
// (expiry, issued-at, issuer) plus the user id and email of the identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
}

// GenerateToken signs a token for the given identity with the configured
// secret and validity. It fails only on malformed identity input or a signing
// error.
func GenerateToken(userID int64, email string, secretKey []byte, validityDuration time.Duration) (string, error) {
	if userID <= 0 || email == "" {
		return "", common.ErrorValidation
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: userID,
		Email:  email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies signature, expiry and issuer, returning the decoded
// claims. Every verification failure maps to common.ErrInvalidToken so the
// caller cannot distinguish a bad signature from an expired token.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
	)
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}
	if claims.UserID <= 0 {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// ExtractBearer parses an Authorization header value of the form
// "Bearer <token>". A missing or malformed header is not an error: it returns
// ok=false and the caller treats the request as unauthenticated.
func ExtractBearer(header string) (token string, ok bool) {
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != common.BearerScheme {
		return "", false
	}
	return parts[1], true
}
