package internal

import (
	"os"
	"path/filepath"
	"testing"
)

const testHost = "http://127.0.0.1:8000"

func TestCacheManager_Paths(t *testing.T) {
	cacheDir := t.TempDir()
	cm := NewCacheManager(cacheDir, testHost)

	if got, want := cm.GetIndexPath(), filepath.Join(cacheDir, "games.yaml"); got != want {
		t.Errorf("GetIndexPath() = %q, want %q", got, want)
	}
	if got, want := cm.GetGamePath(42), filepath.Join(cacheDir, "game_42.json"); got != want {
		t.Errorf("GetGamePath() = %q, want %q", got, want)
	}
	if cm.GetCacheDir() != cacheDir {
		t.Errorf("GetCacheDir() = %q, want %q", cm.GetCacheDir(), cacheDir)
	}
}

func TestCacheManager_IsCacheValid(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, cm *CacheManager)
		host  string
		want  bool
	}{
		{
			name:  "cache does not exist",
			setup: func(t *testing.T, cm *CacheManager) {},
			host:  testHost,
			want:  false,
		},
		{
			name: "cache built from same host",
			setup: func(t *testing.T, cm *CacheManager) {
				if err := cm.SaveGames([]*Session{CreateTestGame(1)}); err != nil {
					t.Fatal(err)
				}
			},
			host: testHost,
			want: true,
		},
		{
			name: "cache built from another host",
			setup: func(t *testing.T, cm *CacheManager) {
				other := NewCacheManager(cm.GetCacheDir(), "https://other.example.com")
				if err := other.SaveGames([]*Session{CreateTestGame(1)}); err != nil {
					t.Fatal(err)
				}
			},
			host: testHost,
			want: false,
		},
		{
			name: "corrupt index",
			setup: func(t *testing.T, cm *CacheManager) {
				_ = cm.EnsureCacheDir()
				if err := os.WriteFile(cm.GetIndexPath(), []byte("games: [oops"), 0o644); err != nil {
					t.Fatal(err)
				}
			},
			host: testHost,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm := NewCacheManager(t.TempDir(), tt.host)
			tt.setup(t, cm)
			if got := cm.IsCacheValid(); got != tt.want {
				t.Errorf("IsCacheValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCacheManager_SaveGamesKeepsServerOrder(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), testHost)
	games := []*Session{
		CreateFinishedTestGame(7, "flu", 80, "good"),
		CreateTestGame(3),
		{ID: 0},
		CreateTestGame(5),
	}

	if err := cm.SaveGames(games); err != nil {
		t.Fatalf("SaveGames() error = %v", err)
	}

	index, err := cm.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex() error = %v", err)
	}
	wantIDs := []int64{7, 3, 5}
	if len(index.Games) != len(wantIDs) {
		t.Fatalf("index has %d games, want %d", len(index.Games), len(wantIDs))
	}
	for i, id := range wantIDs {
		if index.Games[i].ID != id {
			t.Errorf("index.Games[%d].ID = %d, want %d", i, index.Games[i].ID, id)
		}
	}
	if !index.Games[0].Finished || index.Games[0].Diagnosis != "flu" || *index.Games[0].Score != 80 {
		t.Errorf("finished entry not recorded correctly: %+v", index.Games[0])
	}

	loaded, err := cm.LoadAllGames()
	if err != nil {
		t.Fatalf("LoadAllGames() error = %v", err)
	}
	if len(loaded) != 3 || loaded[0].ID != 7 {
		t.Errorf("LoadAllGames() returned %d games", len(loaded))
	}
}

func TestCacheManager_SaveGameAndUpdateIndex(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), testHost)
	if err := cm.SaveGames([]*Session{CreateTestGame(1)}); err != nil {
		t.Fatal(err)
	}

	// new game goes to the front
	if err := cm.SaveGameAndUpdateIndex(CreateTestGame(2)); err != nil {
		t.Fatalf("SaveGameAndUpdateIndex() error = %v", err)
	}
	// existing game is replaced in place
	if err := cm.SaveGameAndUpdateIndex(CreateFinishedTestGame(1, "cold", 40, "ok")); err != nil {
		t.Fatalf("SaveGameAndUpdateIndex() error = %v", err)
	}

	index, err := cm.LoadIndex()
	if err != nil {
		t.Fatal(err)
	}
	if len(index.Games) != 2 || index.Games[0].ID != 2 || index.Games[1].ID != 1 {
		t.Fatalf("unexpected index order: %+v", index.Games)
	}
	if !index.Games[1].Finished {
		t.Error("updated entry should be finished")
	}

	game, err := cm.LoadGame(1)
	if err != nil {
		t.Fatal(err)
	}
	if game.DiagnosisText() != "cold" {
		t.Errorf("cached diagnosis = %q, want cold", game.DiagnosisText())
	}
}

func TestCacheManager_LoadGameMissing(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), testHost)
	_, err := cm.LoadGame(99)
	if err == nil {
		t.Fatal("LoadGame() should fail for a missing game")
	}
	if _, ok := err.(*CacheError); !ok {
		t.Errorf("LoadGame() error type = %T, want *CacheError", err)
	}
}

func TestCacheManager_ClearCache(t *testing.T) {
	cm := NewCacheManager(t.TempDir(), testHost)
	if err := cm.SaveGames([]*Session{CreateTestGame(1), CreateTestGame(2)}); err != nil {
		t.Fatal(err)
	}

	if err := cm.ClearCache(); err != nil {
		t.Fatalf("ClearCache() error = %v", err)
	}
	if _, err := os.Stat(cm.GetIndexPath()); !os.IsNotExist(err) {
		t.Error("index should be removed")
	}
	if _, err := os.Stat(cm.GetGamePath(1)); !os.IsNotExist(err) {
		t.Error("game file should be removed")
	}
	// clearing an empty cache is fine
	if err := cm.ClearCache(); err != nil {
		t.Errorf("ClearCache() on empty cache error = %v", err)
	}
}
