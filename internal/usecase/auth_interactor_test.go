package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/GoArmGo/CampusEvents/internal/auth"
	"github.com/GoArmGo/CampusEvents/internal/database/memory"
	"github.com/GoArmGo/CampusEvents/internal/domain"
	"github.com/GoArmGo/CampusEvents/internal/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testArgon2 = auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newAuthUseCase(t *testing.T) (AuthUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	uc, err := NewAuthUseCase(store, auth.NewPasswordHasher(testArgon2), auth.NewTokenManager("test-secret", 0, "test"), logger.Discard())
	require.NoError(t, err)
	return uc, store
}

func TestRegister(t *testing.T) {
	uc, _ := newAuthUseCase(t)
	ctx := context.Background()

	res, err := uc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "alice", res.User.Username)

	id, err := uc.VerifyToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, id)

	body, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "argon2")
	assert.NotContains(t, string(body), "password")

	_, err = uc.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "pw2"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	msg, _ := domain.PublicMessage(err)
	assert.Equal(t, MsgUsernameTaken, msg)
}

func TestRegisterMissingFields(t *testing.T) {
	uc, _ := newAuthUseCase(t)

	for _, in := range []RegisterInput{
		{Email: "a@x.io", Password: "pw"},
		{Username: "alice", Password: "pw"},
		{Username: "alice", Email: "a@x.io"},
		{Username: "   ", Email: "a@x.io", Password: "pw"},
	} {
		_, err := uc.Register(context.Background(), in)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrValidation))
		msg, _ := domain.PublicMessage(err)
		assert.Equal(t, MsgMissingRegisterFields, msg)
	}
}

func TestRegisterUsernameTooLong(t *testing.T) {
	uc, _ := newAuthUseCase(t)

	long := make([]byte, 65)
	for i := range long {
		long[i] = 'a'
	}
	_, err := uc.Register(context.Background(), RegisterInput{Username: string(long), Email: "a@x.io", Password: "pw"})
	require.Error(t, err)
	msg, _ := domain.PublicMessage(err)
	assert.Equal(t, "username must be at most 64 characters", msg)
}

func TestLogin(t *testing.T) {
	uc, _ := newAuthUseCase(t)
	ctx := context.Background()

	reg, err := uc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)

	res, err := uc.Login(ctx, LoginInput{Identifier: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.NotEmpty(t, res.Token)

	res, err = uc.Login(ctx, LoginInput{Identifier: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)

	_, errWrongPass := uc.Login(ctx, LoginInput{Identifier: "alice", Password: "nope"})
	_, errUnknown := uc.Login(ctx, LoginInput{Identifier: "bob", Password: "pw"})
	require.Error(t, errWrongPass)
	require.Error(t, errUnknown)
	assert.True(t, errors.Is(errWrongPass, domain.ErrInvalidCredentials))
	assert.Equal(t, errWrongPass.Error(), errUnknown.Error(), "unknown user and wrong password must be indistinguishable")

	_, err = uc.Login(ctx, LoginInput{Identifier: "alice"})
	msg, _ := domain.PublicMessage(err)
	assert.Equal(t, MsgMissingLoginFields, msg)
}

func TestVerifyToken(t *testing.T) {
	uc, _ := newAuthUseCase(t)

	_, err := uc.VerifyToken("")
	msg, _ := domain.PublicMessage(err)
	assert.Equal(t, MsgAccessTokenNotFound, msg)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	_, err = uc.VerifyToken("not.a.jwt")
	msg, _ = domain.PublicMessage(err)
	assert.Equal(t, MsgInvalidToken, msg)

	foreign, err := auth.NewTokenManager("other-secret", 0, "test").Generate(uuid.New())
	require.NoError(t, err)
	_, err = uc.VerifyToken(foreign)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestGetCurrentUser(t *testing.T) {
	uc, _ := newAuthUseCase(t)
	ctx := context.Background()

	reg, err := uc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)

	me, err := uc.GetCurrentUser(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me.Email)

	_, err = uc.GetCurrentUser(ctx, uuid.New())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	msg, _ := domain.PublicMessage(err)
	assert.Equal(t, MsgUserNotFound, msg)
}
