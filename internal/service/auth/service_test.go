package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kirinyoku/stagepass/internal/domain"
	"github.com/kirinyoku/stagepass/internal/repository/memory"
)

const testSecret = "test-secret"

func newAuthService(t *testing.T) (*memory.Store, *Service) {
	t.Helper()

	store := memory.NewStore()
	svc := New(store, Config{
		Secret:     testSecret,
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	})

	return store, svc
}

func TestRegisterAndLogin(t *testing.T) {
	_, svc := newAuthService(t)

	reg, err := svc.Register(context.Background(), "alice", "s3cret", domain.RoleUser)
	require.NoError(t, err)
	assert.NotEmpty(t, reg.AccessToken)
	assert.Equal(t, "alice", reg.User.Username)
	assert.Equal(t, domain.RoleUser, reg.User.Role)
	assert.NotEqual(t, "s3cret", reg.User.PasswordHash, "password is never stored in clear")

	res, err := svc.Login(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)

	token, err := jwt.Parse(res.AccessToken, func(t *jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, reg.User.ID.String(), claims["sub"])
	assert.Equal(t, "alice", claims["username"])
	assert.Equal(t, "USER", claims["role"])
}

func TestRegister_DefaultsToUserRole(t *testing.T) {
	_, svc := newAuthService(t)

	res, err := svc.Register(context.Background(), "bob", "s3cret", "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, res.User.Role)
}

func TestRegister_UsernameTaken(t *testing.T) {
	_, svc := newAuthService(t)

	_, err := svc.Register(context.Background(), "alice", "s3cret", domain.RoleUser)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "alice", "other", domain.RoleUser)
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin_WrongPassword(t *testing.T) {
	_, svc := newAuthService(t)

	_, err := svc.Register(context.Background(), "alice", "s3cret", domain.RoleUser)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	_, svc := newAuthService(t)

	_, err := svc.Login(context.Background(), "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
