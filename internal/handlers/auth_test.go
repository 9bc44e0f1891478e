package handlers

import (
	"net/http"
	"testing"
	"time"

	"spotiscience/internal/models"
	"spotiscience/internal/testutil"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken(testSecret, "cli", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, "cli", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)

	_, err = ParseToken("other-secret", token)
	assert.Error(t, err)

	_, err = IssueToken("", "cli", time.Hour)
	assert.Error(t, err)
}

func TestParseToken_RejectsExpiredAndForeign(t *testing.T) {
	expired, err := IssueToken(testSecret, "cli", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := foreign.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = ParseToken(testSecret, signed)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestRequireToken(t *testing.T) {
	valid, err := IssueToken(testSecret, "cli", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{name: "no header", headers: nil, status: http.StatusUnauthorized},
		{name: "wrong scheme", headers: map[string]string{"Authorization": "Basic abc"}, status: http.StatusUnauthorized},
		{name: "garbage token", headers: testutil.WithBearer("not-a-jwt"), status: http.StatusUnauthorized},
		{name: "valid token", headers: testutil.WithBearer(valid), status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, testSecret)
			if tt.status == http.StatusOK {
				env.records.On("ListCollections", mock.Anything, 0).Return([]models.CollectionSummary{}, nil)
			}

			recorder := env.http.GetWithHeaders("/api/v1/collections", tt.headers)
			assert.Equal(t, tt.status, recorder.Code)
		})
	}
}

func TestRequireToken_HealthIsOpen(t *testing.T) {
	env := newTestEnv(t, testSecret)
	env.records.On("Count", mock.Anything).Return(int64(0), nil)
	env.streaming.On("Health", mock.Anything).Return(nil)

	recorder := env.http.GetJSON("/health")
	assert.Equal(t, http.StatusOK, recorder.Code)
}
