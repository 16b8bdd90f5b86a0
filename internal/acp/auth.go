package acp

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// BearerDemoAuthMethod is the one auth method this engine ships as a
// runnable example: a self-issued, short-lived bearer token an agent
// can hand an operator out of band and then verify during
// authenticate. Real deployments are expected to register their own
// AuthMethod ids and verification behind their own Initialize handler.
const BearerDemoAuthMethod = "bearer-demo"

// DemoAuthMethods is the AuthMethods list a demo agent can return from
// InitializeResult.
var DemoAuthMethods = []AuthMethod{
	{ID: BearerDemoAuthMethod, Name: "Bearer token", Description: "paste a token minted by the agent operator"},
}

// DemoTokenIssuer mints and verifies bearer-demo tokens signed with a
// single shared HMAC secret. A real deployment would likely issue
// these from an identity provider instead; this exists so the demo
// auth method has something real to validate against.
type DemoTokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewDemoTokenIssuer builds an issuer around secret, whose tokens
// expire after ttl (defaulting to one hour when ttl <= 0).
func NewDemoTokenIssuer(secret []byte, ttl time.Duration) *DemoTokenIssuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &DemoTokenIssuer{secret: secret, ttl: ttl}
}

// Issue mints a bearer token identifying subject.
func (d *DemoTokenIssuer) Issue(subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(d.secret)
	if err != nil {
		return "", fmt.Errorf("acp: sign demo token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a bearer token minted by Issue, returning
// the subject it was issued for.
func (d *DemoTokenIssuer) Verify(tokenString string) (subject string, err error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("acp: unexpected signing method %v", t.Header["alg"])
		}
		return d.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("acp: verify demo token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("acp: demo token invalid")
	}
	return claims.Subject, nil
}
