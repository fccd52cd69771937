package internal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *StateDB {
	t.Helper()
	db, err := OpenStateDB(filepath.Join(t.TempDir(), "nested", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenStateDB(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "creates missing directories",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "a", "b", "state.db")
			},
		},
		{
			name: "reopens existing database",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "state.db")
				db, err := OpenStateDB(path)
				require.NoError(t, err)
				require.NoError(t, db.Close())
				return path
			},
		},
		{
			name: "parent is a file",
			setup: func(t *testing.T) string {
				parent := filepath.Join(t.TempDir(), "file")
				require.NoError(t, os.WriteFile(parent, []byte("x"), 0o644))
				return filepath.Join(parent, "state.db")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.setup(t)
			db, err := OpenStateDB(path)
			if tt.wantErr {
				var storageErr *StorageError
				assert.True(t, errors.As(err, &storageErr), "want StorageError, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, path, db.Path())
			assert.NoError(t, db.Close())
		})
	}
}

func TestCredentialStore(t *testing.T) {
	creds := openTestDB(t).Credentials()

	_, err := creds.Load()
	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.ErrorIs(t, creds.SetAccess("orphan"), ErrNoCredentials)

	require.NoError(t, creds.Save(TokenPair{Access: "a1", Refresh: "r1"}))
	pair, err := creds.Load()
	require.NoError(t, err)
	assert.Equal(t, TokenPair{Access: "a1", Refresh: "r1"}, pair)

	require.NoError(t, creds.SetAccess("a2"))
	pair, err = creds.Load()
	require.NoError(t, err)
	assert.Equal(t, TokenPair{Access: "a2", Refresh: "r1"}, pair)

	require.NoError(t, creds.Save(TokenPair{Access: "a3", Refresh: "r3"}))
	pair, err = creds.Load()
	require.NoError(t, err)
	assert.Equal(t, "r3", pair.Refresh)

	require.NoError(t, creds.Clear())
	_, err = creds.Load()
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestOutbox(t *testing.T) {
	outbox := openTestDB(t).Outbox()

	diag := "flu"
	score := 80
	game := &Session{ID: 9, IsFinished: true, Diagnosis: &diag, Score: &score, Messages: []Message{
		{ID: 1, Sender: SenderPatient, Content: "cough"},
		{Provisional: NewProvisionalID(), Sender: SenderSystem, Content: "Game over", IsResult: true},
	}}

	require.NoError(t, outbox.Enqueue(game, errors.New("connection refused")))
	require.NoError(t, outbox.Enqueue(&Session{ID: 10, IsFinished: true}, nil))

	pending, err := outbox.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, int64(9), pending[0].Session.ID)
	assert.Equal(t, "connection refused", pending[0].LastError)
	assert.Equal(t, "flu", pending[0].Session.DiagnosisText())
	assert.Len(t, pending[0].Session.Messages, 2)
	assert.True(t, pending[0].Session.Messages[1].IsResult)

	require.NoError(t, outbox.MarkAttempt(9, errors.New("503")))
	pending, err = outbox.Pending()
	require.NoError(t, err)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, "503", pending[0].LastError)

	// re-queueing keeps a single row per game
	require.NoError(t, outbox.Enqueue(game, nil))
	pending, err = outbox.Pending()
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, outbox.Remove(9))
	require.NoError(t, outbox.Remove(10))
	pending, err = outbox.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestStateDB_Describe(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Credentials().Save(TokenPair{Access: "a", Refresh: "r"}))

	tables, err := db.Describe()
	require.NoError(t, err)
	require.Len(t, tables, 2)

	assert.Equal(t, "credentials", tables[0].Name)
	assert.Equal(t, 1, tables[0].Rows)
	assert.Equal(t, "pending_updates", tables[1].Name)
	assert.Equal(t, 0, tables[1].Rows)

	var pk []string
	for _, col := range tables[1].Columns {
		if col.PrimaryKey {
			pk = append(pk, col.Name)
		}
	}
	assert.Equal(t, []string{"chat_id"}, pk)
	assert.Len(t, tables[1].Columns, 5)
}
