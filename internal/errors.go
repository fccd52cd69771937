package internal

import (
	"errors"
	"fmt"
)

// ErrNoCredentials is returned when no login has been stored
var ErrNoCredentials = errors.New("no stored credentials")

// StorageError represents errors accessing the local state database
type StorageError struct {
	Path string
	Op   string // "open", "migrate", "read", "write"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConfigError represents errors loading configuration
type ConfigError struct {
	Source string // file path or env var
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error [%s]: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CacheError represents errors reading or writing the offline cache
type CacheError struct {
	GameID int64
	Op     string // "load", "save"
	Err    error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error: %s game %d: %v", e.Op, e.GameID, e.Err)
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
