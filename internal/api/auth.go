package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/medsim/medsim/internal"
)

// TokenStore persists the credential pair
type TokenStore interface {
	Load() (internal.TokenPair, error)
	Save(pair internal.TokenPair) error
	SetAccess(access string) error
	Clear() error
}

// authorized runs call with the stored access token and applies the
// refresh-once policy on 401
func (c *Client) authorized(ctx context.Context, call func(token string) error) error {
	pair, err := c.tokens.Load()
	if errors.Is(err, internal.ErrNoCredentials) {
		return ErrLoginRequired
	}
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	err = call(pair.Access)
	if !IsUnauthorized(err) {
		return err
	}

	internal.LogDebug("Access token rejected, refreshing once")
	access, refreshErr := c.refresh(ctx, pair.Refresh)
	if refreshErr != nil {
		c.forceLogout()
		return &expiredError{cause: refreshErr}
	}

	err = call(access)
	if IsUnauthorized(err) {
		c.forceLogout()
		return &expiredError{cause: err}
	}
	return err
}

func (c *Client) forceLogout() {
	internal.LogWarn("Credentials rejected after refresh, logging out")
	if err := c.tokens.Clear(); err != nil {
		internal.LogError("Failed to clear credentials: %v", err)
	}
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", errors.New("no refresh token stored")
	}

	var out struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	body := map[string]string{"refresh": refreshToken}
	if err := c.do(ctx, http.MethodPost, pathRefresh, "", body, &out); err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	if out.Access == "" {
		return "", errors.New("token refresh returned no access token")
	}

	// rotating backends return a new refresh token as well
	if out.Refresh != "" {
		err := c.tokens.Save(internal.TokenPair{Access: out.Access, Refresh: out.Refresh})
		if err != nil {
			return "", err
		}
	} else if err := c.tokens.SetAccess(out.Access); err != nil {
		return "", err
	}
	return out.Access, nil
}

// Login exchanges a username and password for tokens and stores them
func (c *Client) Login(ctx context.Context, username, password string) error {
	var pair internal.TokenPair
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, pathLogin, "", body, &pair); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if pair.Access == "" {
		return errors.New("login failed: no access token in response")
	}
	if err := c.tokens.Save(pair); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	internal.LogInfo("Logged in as %s", username)
	return nil
}

// RegisterRequest is a new account
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	if err := c.do(ctx, http.MethodPost, pathRegister, "", req, nil); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return nil
}

// Logout forgets the stored credential
func (c *Client) Logout() error {
	return c.tokens.Clear()
}

// TokenInfo is what the access token says about itself. The signature is
// not checked; the server does that.
type TokenInfo struct {
	UserID    string
	ExpiresAt time.Time
}

// Expired reports whether the token's exp claim is in the past
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// CurrentTokenInfo decodes the stored access token
func (c *Client) CurrentTokenInfo() (TokenInfo, error) {
	pair, err := c.tokens.Load()
	if errors.Is(err, internal.ErrNoCredentials) {
		return TokenInfo{}, ErrLoginRequired
	}
	if err != nil {
		return TokenInfo{}, err
	}
	return ParseTokenInfo(pair.Access)
}

// ParseTokenInfo decodes a JWT access token without verifying it
func ParseTokenInfo(access string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("failed to decode access token: %w", err)
	}

	var info TokenInfo
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	switch v := claims["user_id"].(type) {
	case string:
		info.UserID = v
	case float64:
		info.UserID = fmt.Sprintf("%.0f", v)
	default:
		if sub, err := claims.GetSubject(); err == nil {
			info.UserID = sub
		}
	}
	return info, nil
}
