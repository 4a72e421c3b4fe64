package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthService_Signup(t *testing.T) {
	env := setupTestEnv(t)
	auth := NewAuthService(env.repos.Users)

	user, err := auth.Signup(env.ctx, SignupInput{
		Email:       "  Alice@Example.com ",
		DisplayName: " Alice ",
		Password:    "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice", user.DisplayName)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))

	_, err = auth.Signup(env.ctx, SignupInput{Email: "alice@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_SignupValidation(t *testing.T) {
	env := setupTestEnv(t)
	auth := NewAuthService(env.repos.Users)

	tests := []struct {
		name    string
		input   SignupInput
		wantErr error
	}{
		{"invalid email", SignupInput{Email: "not-an-email", Password: "password123"}, ErrInvalidEmail},
		{"empty email", SignupInput{Email: " ", Password: "password123"}, ErrInvalidEmail},
		{"short password", SignupInput{Email: "bob@example.com", Password: "short"}, ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Signup(env.ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	env := setupTestEnv(t)
	auth := NewAuthService(env.repos.Users)

	created, err := auth.Signup(env.ctx, SignupInput{Email: "carol@example.com", Password: "password123"})
	require.NoError(t, err)

	user, err := auth.Login(env.ctx, LoginInput{Email: "CAROL@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = auth.Login(env.ctx, LoginInput{Email: "carol@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(env.ctx, LoginInput{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	got, err := auth.GetUser(env.ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", got.Email)

	_, err = auth.GetUser(env.ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
