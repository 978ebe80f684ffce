package session

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	autherrors "tunegate/pkg/auth-errors"
)

// TokenParser turns a raw bearer JWT into a Claims bag. Signature is checked
// against the shared signing key; claim validation (expiry in particular) is
// deliberately left to the structural validator so expired tokens still
// produce a full report instead of an opaque parse error.
type TokenParser struct {
	signingKey []byte
	parser     *jwt.Parser
}

// NewTokenParser creates a parser for HS256-signed session tokens.
func NewTokenParser(signingKey string) *TokenParser {
	return &TokenParser{
		signingKey: []byte(signingKey),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

// Parse verifies the token signature and decodes its claims. Any parse or
// signature failure maps to MALFORMED_JWT: from this layer's perspective a
// token it cannot read does not exist.
func (p *TokenParser) Parse(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, autherrors.New(autherrors.CodeMalformedJWT, "empty token")
	}

	claims := &Claims{}
	token, err := p.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return p.signingKey, nil
	})
	if err != nil {
		return nil, autherrors.Wrap(err, autherrors.CodeMalformedJWT, "could not parse session token")
	}
	if !token.Valid {
		return nil, autherrors.New(autherrors.CodeMalformedJWT, "session token signature is invalid")
	}
	return claims, nil
}

// FromAuthHeader extracts the bearer token from an Authorization header value
// and parses it.
func (p *TokenParser) FromAuthHeader(header string) (*Claims, error) {
	const bearerPrefix = "Bearer "
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return nil, autherrors.New(autherrors.CodeNoSession, "missing bearer authorization header")
	}
	return p.Parse(header[len(bearerPrefix):])
}
