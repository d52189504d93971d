package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired inspects the bearer token's exp claim without verifying the
// signature. The client never holds the signing secret; verification happens
// server-side on every request. A token that cannot be parsed at all is
// treated as expired.
func tokenExpired(tokenStr string, now time.Time) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		// No exp claim: rely on the server to reject it.
		return false
	}
	return now.After(exp.Time)
}
