package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	// ErrMissingCredential is returned when no token was supplied at all.
	ErrMissingCredential = errors.New("no credential provided")
	// ErrExpiredOrInvalid is returned when a token fails the signature or
	// expiry check, or its payload is malformed.
	ErrExpiredOrInvalid = errors.New("credential is expired or invalid")
)

const (
	idClaim       = "id"
	usernameClaim = "username"
	roleClaim     = "role"
	expClaim      = "exp"
)

// Principal is the authenticated identity derived from a verified token.
type Principal struct {
	Id       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return p.Role == "admin"
}

// Authenticator signs and verifies session tokens with a process-wide
// shared secret. It holds no mutable state.
type Authenticator struct {
	signingKey []byte
	expiration time.Duration
}

func NewAuthenticator(signingKey []byte, expiration time.Duration) *Authenticator {
	return &Authenticator{
		signingKey: signingKey,
		expiration: expiration,
	}
}

// IssueToken creates a signed token embedding the principal and an expiry.
func (a *Authenticator) IssueToken(p Principal) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		idClaim:       p.Id,
		usernameClaim: p.Username,
		roleClaim:     p.Role,
		expClaim:      time.Now().Add(a.expiration).Unix(),
	})

	return token.SignedString(a.signingKey)
}

// Verify validates tokenString and returns the embedded principal. The
// principal is re-derived fresh on every call; Verify never touches any
// session state.
func (a *Authenticator) Verify(tokenString string) (Principal, error) {
	if tokenString == "" {
		return Principal{}, ErrMissingCredential
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.signingKey, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, ErrExpiredOrInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrExpiredOrInvalid
	}

	id, ok := claims[idClaim].(float64)
	if !ok {
		return Principal{}, ErrExpiredOrInvalid
	}

	username, ok := claims[usernameClaim].(string)
	if !ok {
		return Principal{}, ErrExpiredOrInvalid
	}

	role, ok := claims[roleClaim].(string)
	if !ok {
		return Principal{}, ErrExpiredOrInvalid
	}

	return Principal{
		Id:       int(id),
		Username: username,
		Role:     role,
	}, nil
}
