package auth

import (
	"errors"
	"fmt"
	"strings"

	utils "github.com/fathima-sithara/video-asset-service/internal/utis"
	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier verifies HS256 access tokens signed with the server secret and
// returns the user id claim (sub, user_id or user_uuid).
type JWTVerifier struct {
	secret []byte
	issuer string
}

func NewJWTVerifier(secret, issuer string) (*JWTVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", utils.ErrUnauthorized)
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: malformed authorization header", utils.ErrUnauthorized)
	}
	return strings.TrimSpace(token), nil
}

// Verify validates the bearer credential in header and returns the caller's user id.
func (j *JWTVerifier) Verify(header string) (string, error) {
	token, err := BearerToken(header)
	if err != nil {
		return "", err
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", utils.ErrUnauthorized, err)
	}
	if !t.Valid {
		return "", fmt.Errorf("%w: invalid token", utils.ErrUnauthorized)
	}
	for _, key := range []string{"sub", "user_id", "user_uuid"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: user id not found in token", utils.ErrUnauthorized)
}
