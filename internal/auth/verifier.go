// Package auth verifies the bearer tokens that guard admin endpoints.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

var (
	ErrNoToken   = errors.New("auth: missing bearer token")
	ErrForbidden = errors.New("auth: admin role required")
)

// Principal is the identity carried by a verified token.
type Principal struct {
	Subject string
	Role    string
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with Secret.
type Verifier struct {
	Secret []byte
	Issuer string
	Leeway time.Duration
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{Secret: []byte(secret), Issuer: "ridepool", Leeway: 30 * time.Second}
}

// Issue signs a token for subject with role, valid for ttl.
func (v *Verifier) Issue(subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return tok.SignedString(v.Secret)
}

// Verify parses raw and returns its principal.
func (v *Verifier) Verify(raw string) (Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return v.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.Leeway),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("auth: %w", err)
	}
	return Principal{Subject: c.Subject, Role: c.Role}, nil
}

// FromRequest verifies the Authorization bearer token of r and requires the
// admin role.
func (v *Verifier) FromRequest(r *http.Request) (Principal, error) {
	authz := r.Header.Get("Authorization")
	if len(authz) < 7 || !strings.EqualFold(authz[:7], "bearer ") {
		return Principal{}, ErrNoToken
	}
	p, err := v.Verify(strings.TrimSpace(authz[7:]))
	if err != nil {
		return Principal{}, err
	}
	if !p.IsAdmin() {
		return p, ErrForbidden
	}
	return p, nil
}
