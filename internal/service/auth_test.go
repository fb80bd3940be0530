package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerRequest() *types.RegisterRequest {
	return &types.RegisterRequest{
		Email:     "Cook@Example.com",
		Username:  "cook_1",
		FirstName: "Julia",
		LastName:  "Child",
		Password:  "s3cret-pass",
	}
}

func TestAuthRegisterAndLogin(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	auth := service.NewAuthService(db, "test-secret", time.Hour)
	ctx := context.Background()

	user, err := auth.Register(ctx, registerRequest())
	require.NoError(t, err)
	assert.Equal(t, "cook@example.com", user.Email)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	token, err := auth.Login(ctx, "COOK@example.com", "s3cret-pass")
	require.NoError(t, err)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "cook_1", claims.Username)

	_, err = auth.Login(ctx, "cook@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = auth.Login(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestAuthRegisterRejectsDuplicates(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	auth := service.NewAuthService(db, "test-secret", time.Hour)
	ctx := context.Background()

	_, err := auth.Register(ctx, registerRequest())
	require.NoError(t, err)

	again := registerRequest()
	again.Username = "someone_else"
	_, err = auth.Register(ctx, again)
	assertValidation(t, err, "email")

	again = registerRequest()
	again.Email = "other@example.com"
	_, err = auth.Register(ctx, again)
	assertValidation(t, err, "username")
}

func TestAuthRegisterValidation(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	auth := service.NewAuthService(db, "test-secret", time.Hour)

	tests := []struct {
		name   string
		mutate func(*types.RegisterRequest)
		field  string
	}{
		{"bad email", func(r *types.RegisterRequest) { r.Email = "not-an-email" }, "email"},
		{"short username", func(r *types.RegisterRequest) { r.Username = "abc" }, "username"},
		{"bad username characters", func(r *types.RegisterRequest) { r.Username = "bad name!" }, "username"},
		{"reserved username", func(r *types.RegisterRequest) { r.Username = "me" }, "username"},
		{"short password", func(r *types.RegisterRequest) { r.Password = "short" }, "password"},
		{"missing first name", func(r *types.RegisterRequest) { r.FirstName = "" }, "first_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := registerRequest()
			tt.mutate(req)
			_, err := auth.Register(context.Background(), req)
			assertValidation(t, err, tt.field)
		})
	}
}

func TestAuthSetPassword(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	auth := service.NewAuthService(db, "test-secret", time.Hour)
	ctx := context.Background()

	user, err := auth.Register(ctx, registerRequest())
	require.NoError(t, err)

	err = auth.SetPassword(ctx, user.ID, "wrong", "brand-new-pass")
	assertValidation(t, err, "current_password")

	require.NoError(t, auth.SetPassword(ctx, user.ID, "s3cret-pass", "brand-new-pass"))
	_, err = auth.Login(ctx, "cook@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = auth.Login(ctx, "cook@example.com", "brand-new-pass")
	assert.NoError(t, err)

	assert.ErrorIs(t, auth.SetPassword(ctx, uuid.Nil, "a", "bbbbbbbb"), service.ErrUnauthenticated)
}

func TestAuthValidateTokenRejects(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	auth := service.NewAuthService(db, "test-secret", time.Hour)
	other := service.NewAuthService(db, "other-secret", time.Hour)

	user, err := auth.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	forged, err := other.GenerateToken(user)
	require.NoError(t, err)
	_, err = auth.ValidateToken(forged)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "foodgram",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		UserID: user.ID,
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = auth.ValidateToken(signed)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	_, err = auth.ValidateToken("garbage")
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}
