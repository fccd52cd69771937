package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const cacheVersion = "1.0"

// CacheManager keeps an offline copy of past games
type CacheManager struct {
	cacheDir string
	apiHost  string
}

// CacheMetadata stores metadata about the cache
type CacheMetadata struct {
	APIHost      string    `yaml:"api_host"`
	CacheVersion string    `yaml:"cache_version"`
	CreatedAt    time.Time `yaml:"created_at"`
	UpdatedAt    time.Time `yaml:"updated_at"`
}

// GameIndexEntry is one game in the index
type GameIndexEntry struct {
	ID           int64     `yaml:"id"`
	StartTime    time.Time `yaml:"start_time"`
	Finished     bool      `yaml:"finished"`
	Diagnosis    string    `yaml:"diagnosis,omitempty"`
	Score        *int      `yaml:"score,omitempty"`
	MessageCount int       `yaml:"message_count"`
}

// GameIndex is the YAML index of cached games, in server order
type GameIndex struct {
	Games    []GameIndexEntry `yaml:"games"`
	Metadata CacheMetadata    `yaml:"metadata"`
}

// NewCacheManager creates a cache manager for games fetched from apiHost
func NewCacheManager(cacheDir, apiHost string) *CacheManager {
	return &CacheManager{
		cacheDir: cacheDir,
		apiHost:  apiHost,
	}
}

// EnsureCacheDir ensures the cache directory exists
func (cm *CacheManager) EnsureCacheDir() error {
	return os.MkdirAll(cm.cacheDir, 0o755)
}

// GetCacheDir returns the cache directory path
func (cm *CacheManager) GetCacheDir() string {
	return cm.cacheDir
}

// GetIndexPath returns the path to the game index YAML file
func (cm *CacheManager) GetIndexPath() string {
	return filepath.Join(cm.cacheDir, "games.yaml")
}

// GetGamePath returns the path to a game's cache file
func (cm *CacheManager) GetGamePath(id int64) string {
	return filepath.Join(cm.cacheDir, fmt.Sprintf("game_%d.json", id))
}

// IsCacheValid reports whether the index exists and was built from the
// configured backend
func (cm *CacheManager) IsCacheValid() bool {
	index, err := cm.LoadIndex()
	if err != nil {
		return false
	}
	return index.Metadata.APIHost == cm.apiHost && index.Metadata.CacheVersion == cacheVersion
}

// LoadIndex loads the game index
func (cm *CacheManager) LoadIndex() (*GameIndex, error) {
	data, err := os.ReadFile(cm.GetIndexPath())
	if err != nil {
		return nil, err
	}

	var index GameIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}
	return &index, nil
}

// SaveIndex saves the game index
func (cm *CacheManager) SaveIndex(index *GameIndex) error {
	if err := cm.EnsureCacheDir(); err != nil {
		return err
	}

	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return os.WriteFile(cm.GetIndexPath(), data, 0o644)
}

// SaveGame writes a single game file
func (cm *CacheManager) SaveGame(game *Session) error {
	if err := cm.EnsureCacheDir(); err != nil {
		return &CacheError{GameID: game.ID, Op: "save", Err: err}
	}

	data, err := json.MarshalIndent(game, "", "  ")
	if err != nil {
		return &CacheError{GameID: game.ID, Op: "save", Err: err}
	}
	if err := os.WriteFile(cm.GetGamePath(game.ID), data, 0o644); err != nil {
		return &CacheError{GameID: game.ID, Op: "save", Err: err}
	}
	return nil
}

// LoadGame reads a single game file
func (cm *CacheManager) LoadGame(id int64) (*Session, error) {
	data, err := os.ReadFile(cm.GetGamePath(id))
	if err != nil {
		return nil, &CacheError{GameID: id, Op: "load", Err: err}
	}

	var game Session
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, &CacheError{GameID: id, Op: "load", Err: err}
	}
	return &game, nil
}

// LoadAllGames loads every indexed game, skipping unreadable files
func (cm *CacheManager) LoadAllGames() ([]*Session, error) {
	index, err := cm.LoadIndex()
	if err != nil {
		return nil, err
	}

	games := make([]*Session, 0, len(index.Games))
	for _, entry := range index.Games {
		game, err := cm.LoadGame(entry.ID)
		if err != nil {
			LogDebug("Skipping cached game %d: %v", entry.ID, err)
			continue
		}
		games = append(games, game)
	}
	return games, nil
}

func indexEntry(game *Session) GameIndexEntry {
	return GameIndexEntry{
		ID:           game.ID,
		StartTime:    game.StartTime,
		Finished:     game.IsFinished,
		Diagnosis:    game.DiagnosisText(),
		Score:        game.Score,
		MessageCount: len(game.Messages),
	}
}

func (cm *CacheManager) newIndex(capacity int) *GameIndex {
	now := time.Now()
	return &GameIndex{
		Games: make([]GameIndexEntry, 0, capacity),
		Metadata: CacheMetadata{
			APIHost:      cm.apiHost,
			CacheVersion: cacheVersion,
			CreatedAt:    now,
			UpdatedAt:    now,
		},
	}
}

// SaveGames replaces the index with games, keeping their order
func (cm *CacheManager) SaveGames(games []*Session) error {
	if err := cm.EnsureCacheDir(); err != nil {
		return err
	}

	index := cm.newIndex(len(games))
	for _, game := range games {
		if game.IsPlaceholder() {
			continue
		}
		if err := cm.SaveGame(game); err != nil {
			LogWarn("Failed to cache game %d: %v", game.ID, err)
			continue
		}
		index.Games = append(index.Games, indexEntry(game))
	}
	return cm.SaveIndex(index)
}

// SaveGameAndUpdateIndex saves one game and updates its index entry. New
// games go to the front, matching the server's most-recent-first order.
func (cm *CacheManager) SaveGameAndUpdateIndex(game *Session) error {
	if game.IsPlaceholder() {
		return nil
	}
	if err := cm.SaveGame(game); err != nil {
		return err
	}

	index, err := cm.LoadIndex()
	if err != nil || index.Metadata.APIHost != cm.apiHost {
		index = cm.newIndex(1)
	}
	index.Metadata.UpdatedAt = time.Now()

	entry := indexEntry(game)
	for i := range index.Games {
		if index.Games[i].ID == game.ID {
			index.Games[i] = entry
			return cm.SaveIndex(index)
		}
	}
	index.Games = append([]GameIndexEntry{entry}, index.Games...)
	return cm.SaveIndex(index)
}

// ClearCache removes the index and every cached game
func (cm *CacheManager) ClearCache() error {
	if index, err := cm.LoadIndex(); err == nil {
		for _, entry := range index.Games {
			_ = os.Remove(cm.GetGamePath(entry.ID))
		}
	}

	if err := os.Remove(cm.GetIndexPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
