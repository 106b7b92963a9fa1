package auth

import (
	"errors"
	"testing"
	"time"

	utils "github.com/fathima-sithara/video-asset-service/internal/utis"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "s3cr3t"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestNewJWTVerifierRequiresSecret(t *testing.T) {
	_, err := NewJWTVerifier(" ", "")
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	v, err := NewJWTVerifier(secret, "")
	require.NoError(t, err)
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid sub", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u1", "exp": exp}), "u1", false},
		{"lowercase scheme", "bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u1", "exp": exp}), "u1", false},
		{"user_id fallback", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": "u2", "exp": exp}), "u2", false},
		{"user_uuid fallback", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_uuid": "u3", "exp": exp}), "u3", false},
		{"missing header", "", "", true},
		{"no scheme", sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u1", "exp": exp}), "", true},
		{"basic scheme", "Basic dTE6cGFzcw==", "", true},
		{"garbage token", "Bearer abc.def.ghi", "", true},
		{"wrong secret", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "u1", "exp": exp}), "", true},
		{"expired", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u1", "exp": time.Now().Add(-time.Minute).Unix()}), "", true},
		{"no expiry", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u1"}), "", true},
		{"other hmac alg", "Bearer " + sign(t, jwt.SigningMethodHS512, []byte(secret), jwt.MapClaims{"sub": "u1", "exp": exp}), "", true},
		{"alg none", "Bearer " + sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"sub": "u1", "exp": exp}), "", true},
		{"no user claim", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"exp": exp}), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Verify(tt.header)
			if tt.wantErr {
				assert.True(t, errors.Is(err, utils.ErrUnauthorized), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerifyIssuer(t *testing.T) {
	v, err := NewJWTVerifier(secret, "auth-service")
	require.NoError(t, err)
	exp := time.Now().Add(time.Hour).Unix()

	ok := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u1", "exp": exp, "iss": "auth-service"})
	got, err := v.Verify("Bearer " + ok)
	require.NoError(t, err)
	assert.Equal(t, "u1", got)

	bad := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "u1", "exp": exp, "iss": "someone-else"})
	_, err = v.Verify("Bearer " + bad)
	assert.True(t, errors.Is(err, utils.ErrUnauthorized))
}
