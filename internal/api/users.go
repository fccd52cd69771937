package api

import (
	"context"
	"net/http"

	"github.com/medsim/medsim/internal"
)

// Profile fetches the signed-in player. It doubles as the stored-login check.
func (c *Client) Profile(ctx context.Context) (*internal.Profile, error) {
	var p internal.Profile
	err := c.authorized(ctx, func(token string) error {
		return c.do(ctx, http.MethodGet, pathProfile, token, nil, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// TopUsers fetches the leaderboard. It needs no login.
func (c *Client) TopUsers(ctx context.Context) ([]internal.TopUser, error) {
	var users []internal.TopUser
	if err := c.do(ctx, http.MethodGet, pathTopUsers, "", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}
