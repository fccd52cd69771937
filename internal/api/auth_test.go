package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/medsim/medsim/internal"
	"github.com/medsim/medsim/internal/api"
	"github.com/medsim/medsim/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorized_NoCredential(t *testing.T) {
	env := testutil.NewLoggedOutEnv(t)

	_, err := env.Client.Profile(context.Background())
	assert.ErrorIs(t, err, api.ErrLoginRequired)
	assert.True(t, api.IsAuthFailure(err))
	assert.Zero(t, env.Backend.Count(testutil.RouteProfile), "no request without a credential")
}

func TestAuthorized_RefreshOnceThenRetry(t *testing.T) {
	env := testutil.NewEnv(t)
	before := env.Tokens.Pair()
	env.Backend.ExpireAccessTokens()

	p, err := env.Client.Profile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "house", p.User.Username)

	assert.Equal(t, 1, env.Backend.Count(testutil.RouteRefresh))
	assert.Equal(t, 2, env.Backend.Count(testutil.RouteProfile))

	after := env.Tokens.Pair()
	assert.NotEqual(t, before.Access, after.Access, "access token is replaced")
	assert.Equal(t, before.Refresh, after.Refresh, "refresh token is kept")
}

func TestAuthorized_SecondUnauthorizedLogsOut(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Backend.SetStatus(testutil.RouteProfile, http.StatusUnauthorized)

	_, err := env.Client.Profile(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrSessionExpired)

	assert.Equal(t, 1, env.Backend.Count(testutil.RouteRefresh), "exactly one refresh")
	assert.Equal(t, 2, env.Backend.Count(testutil.RouteProfile), "original call plus one retry")
	assert.False(t, env.Tokens.LoggedIn(), "credential cleared")
}

func TestAuthorized_RefreshRejectedLogsOut(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Backend.ExpireAccessTokens()
	env.Backend.RevokeRefreshTokens()

	_, err := env.Client.PastGames(context.Background())
	assert.ErrorIs(t, err, api.ErrSessionExpired)
	assert.Equal(t, 1, env.Backend.Count(testutil.RouteRefresh))
	assert.Equal(t, 1, env.Backend.Count(testutil.RoutePastGames), "no retry without a fresh token")
	assert.False(t, env.Tokens.LoggedIn())
}

func TestAuthorized_RetryFailsWithOtherError(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Backend.AddGame(internal.CreateTestGame(1))
	env.Backend.ExpireAccessTokens()

	// the retried call hits a missing game: a plain error, not a logout
	_, err := env.Client.Game(context.Background(), 99)
	var se *api.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.False(t, api.IsAuthFailure(err))
	assert.True(t, env.Tokens.LoggedIn())
}

func TestAuthorized_ServerErrorDoesNotRefresh(t *testing.T) {
	env := testutil.NewEnv(t)
	env.Backend.SetStatus(testutil.RoutePastGames, http.StatusBadGateway)

	_, err := env.Client.PastGames(context.Background())
	require.Error(t, err)
	assert.Zero(t, env.Backend.Count(testutil.RouteRefresh))
	assert.True(t, env.Tokens.LoggedIn())
}

func TestLoginLogout(t *testing.T) {
	env := testutil.NewLoggedOutEnv(t)
	ctx := context.Background()

	err := env.Client.Login(ctx, "house", "wrong")
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
	assert.False(t, env.Tokens.LoggedIn())

	require.NoError(t, env.Client.Login(ctx, "house", "vicodin"))
	assert.True(t, env.Tokens.LoggedIn())

	_, err = env.Client.Profile(ctx)
	require.NoError(t, err)

	require.NoError(t, env.Client.Logout())
	assert.False(t, env.Tokens.LoggedIn())
}

func TestRegister(t *testing.T) {
	env := testutil.NewLoggedOutEnv(t)
	ctx := context.Background()

	req := api.RegisterRequest{Username: "cameron", Email: "c@example.com", Password: "secret"}
	require.NoError(t, env.Client.Register(ctx, req))
	assert.Error(t, env.Client.Register(ctx, req), "duplicate username")

	require.NoError(t, env.Client.Login(ctx, "cameron", "secret"))
}

func TestParseTokenInfo(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": 42,
		"exp":     exp.Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	info, err := api.ParseTokenInfo(token)
	require.NoError(t, err)
	assert.Equal(t, "42", info.UserID)
	assert.True(t, info.ExpiresAt.Equal(exp))
	assert.False(t, info.Expired(time.Now()))
	assert.True(t, info.Expired(exp.Add(time.Second)))

	_, err = api.ParseTokenInfo("not-a-jwt")
	assert.Error(t, err)
}

func TestCurrentTokenInfo(t *testing.T) {
	env := testutil.NewLoggedOutEnv(t)
	_, err := env.Client.CurrentTokenInfo()
	assert.ErrorIs(t, err, api.ErrLoginRequired)

	require.NoError(t, env.Tokens.Save(env.Backend.IssueTokens()))
	info, err := env.Client.CurrentTokenInfo()
	require.NoError(t, err)
	assert.Equal(t, "1", info.UserID)
	assert.False(t, info.ExpiresAt.IsZero())
}
