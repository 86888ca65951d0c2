package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer identifies tokens minted by the mock authentication service.
const Issuer = "outreach-auth"

// GenerateToken signs an HS256 token for userID that expires after ttl.
func GenerateToken(userID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iss": Issuer,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
