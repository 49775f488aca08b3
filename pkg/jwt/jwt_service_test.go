package jwt

import (
	"testing"
	"time"

	"recipe-vault/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	svc := NewJWTService("secret", "RECIPE-VAULT", time.Hour)
	userID := uuid.NewString()

	token, err := svc.GenerateToken(userID)
	require.NoError(t, err)

	got, err := svc.GetUserIDByToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestGetUserIDByToken_Rejects(t *testing.T) {
	issuer := NewJWTService("secret", "RECIPE-VAULT", time.Hour)
	token, err := issuer.GenerateToken(uuid.NewString())
	require.NoError(t, err)

	expired, err := NewJWTService("secret", "RECIPE-VAULT", -time.Minute).GenerateToken(uuid.NewString())
	require.NoError(t, err)

	foreign, err := NewJWTService("secret", "SOMEONE-ELSE", time.Hour).GenerateToken(uuid.NewString())
	require.NoError(t, err)

	tests := []struct {
		name    string
		svc     JWTService
		token   string
		wantErr error
	}{
		{"wrong secret", NewJWTService("other", "RECIPE-VAULT", time.Hour), token, domain.ErrTokenInvalid},
		{"garbage", issuer, "not.a.token", domain.ErrTokenInvalid},
		{"expired", issuer, expired, domain.ErrTokenExpired},
		{"other issuer", issuer, foreign, domain.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.GetUserIDByToken(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}
