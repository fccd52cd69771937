package testutil

import (
	"encoding/json"
	"testing"

	"github.com/medsim/medsim/internal"
	"github.com/medsim/medsim/internal/api"
)

// GamePrefix is the route prefix the fake backend serves games under
const GamePrefix = "/api/core"

// Env is a fake backend plus a client wired to it
type Env struct {
	Backend *FakeBackend
	Client  *api.Client
	Tokens  *MemoryTokens
}

// NewEnv starts a fake backend and a client that is already logged in
func NewEnv(t *testing.T) *Env {
	t.Helper()
	env := NewLoggedOutEnv(t)
	if err := env.Tokens.Save(env.Backend.IssueTokens()); err != nil {
		t.Fatalf("Failed to store tokens: %v", err)
	}
	return env
}

// NewLoggedOutEnv starts a fake backend and a client with no credential
func NewLoggedOutEnv(t *testing.T) *Env {
	t.Helper()
	backend := NewFakeBackend(t, GamePrefix)
	tokens := NewMemoryTokens(internal.TokenPair{})
	client := api.New(api.Options{BaseURL: backend.URL(), GamePrefix: GamePrefix}, tokens)
	return &Env{Backend: backend, Client: client, Tokens: tokens}
}

// JSONMarshal marshals a value to JSON for testing
func JSONMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal JSON: %v", err)
	}
	return data
}

// JSONUnmarshal unmarshals JSON for testing
func JSONUnmarshal(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
}
