package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenClaims is the subset of the issued JWT the storefront reads.
// The caller principal is the email claim; everything else is resolved
// from storage.
type AccessTokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}
