package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
)

// ErrInvalidToken covers bad signatures, malformed tokens, and expiry.
// Callers do not learn which check failed.
var ErrInvalidToken = errors.New("invalid token")

// Generator signs and validates session tokens with a server-held
// HMAC secret.
type Generator struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewGenerator constructs a token generator.
func NewGenerator(secret string, ttl time.Duration, issuer string) *Generator {
	return &Generator{secret: []byte(secret), ttl: ttl, issuer: issuer}
}

// SessionClaims is the JWT payload for a logged-in session.
type SessionClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// Sign produces a signed session token for the user.
func (g *Generator) Sign(userID int64, email string) (string, error) {
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: g.secret},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := time.Now().UTC()
	std := gojwt.Claims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    g.issuer,
		IssuedAt:  gojwt.NewNumericDate(now),
		Expiry:    gojwt.NewNumericDate(now.Add(g.ttl)),
		NotBefore: gojwt.NewNumericDate(now),
	}
	custom := SessionClaims{
		UserID: strconv.FormatInt(userID, 10),
		Email:  email,
	}

	token, err := gojwt.Signed(signer).Claims(std).Claims(custom).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize jwt: %w", err)
	}
	return token, nil
}

// Verify checks signature and validity window and returns the claims.
func (g *Generator) Verify(token string) (*SessionClaims, error) {
	return g.verifyAt(token, time.Now())
}

func (g *Generator) verifyAt(token string, now time.Time) (*SessionClaims, error) {
	parsed, err := gojwt.ParseSigned(token, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return nil, ErrInvalidToken
	}

	var std gojwt.Claims
	var custom SessionClaims
	if err := parsed.Claims(g.secret, &std, &custom); err != nil {
		return nil, ErrInvalidToken
	}

	// Zero leeway: a token is good strictly until its expiry instant.
	if err := std.ValidateWithLeeway(gojwt.Expected{Issuer: g.issuer, Time: now}, 0); err != nil {
		return nil, ErrInvalidToken
	}
	if custom.UserID == "" && std.Subject != "" {
		custom.UserID = std.Subject
	}
	return &custom, nil
}

// ParsedUserID returns the numeric user id carried in the claims.
func (c *SessionClaims) ParsedUserID() (int64, error) {
	id, err := strconv.ParseInt(c.UserID, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}
