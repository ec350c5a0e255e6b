package service

import (
	"testing"
	"time"

	"homecare-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key", time.Hour, "homecare-ledger")
	actorID := uuid.New()

	token, expiresAt, err := svc.Generate(actorID, domain.RoleFinance)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, actorID, claims.ActorID)
	assert.Equal(t, domain.RoleFinance, claims.Role)
}

func TestJWTTokenService_Validate_Garbage(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key", time.Hour, "homecare-ledger")

	claims, err := svc.Validate("not-a-jwt")
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestJWTTokenService_Validate_WrongSecret(t *testing.T) {
	issuing := NewJWTTokenService("secret-one", time.Hour, "homecare-ledger")
	validating := NewJWTTokenService("secret-two", time.Hour, "homecare-ledger")

	token, _, err := issuing.Generate(uuid.New(), domain.RoleAdmin)
	require.NoError(t, err)

	claims, err := validating.Validate(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}

func TestJWTTokenService_Validate_Expired(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key", -time.Minute, "homecare-ledger")

	token, _, err := svc.Generate(uuid.New(), domain.RoleHR)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	assert.Error(t, err)
	assert.Nil(t, claims)
}
