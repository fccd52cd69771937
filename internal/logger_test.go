package internal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLogLevel(t *testing.T) {
	originalLevel := logLevel
	defer SetLogLevel(originalLevel)

	SetLogLevel(LogLevelDebug)
	if logLevel != LogLevelDebug {
		t.Errorf("SetLogLevel() logLevel = %v, want LogLevelDebug", logLevel)
	}
	if level.Level() != zapcore.DebugLevel {
		t.Errorf("zap level = %v, want debug", level.Level())
	}

	SetLogLevel(LogLevelError)
	if logLevel != LogLevelError {
		t.Errorf("SetLogLevel() logLevel = %v, want LogLevelError", logLevel)
	}
	if level.Level() != zapcore.ErrorLevel {
		t.Errorf("zap level = %v, want error", level.Level())
	}
}

func TestSetVerbose(t *testing.T) {
	originalLevel := logLevel
	defer SetLogLevel(originalLevel)

	SetVerbose(true)
	if logLevel != LogLevelDebug {
		t.Errorf("SetVerbose(true) logLevel = %v, want LogLevelDebug", logLevel)
	}

	SetVerbose(false)
	if logLevel != LogLevelInfo {
		t.Errorf("SetVerbose(false) logLevel = %v, want LogLevelInfo", logLevel)
	}
}

func TestLogFunctionsRespectLevel(t *testing.T) {
	originalLogger := logger
	originalLevel := logLevel
	defer func() {
		logger = originalLogger
		SetLogLevel(originalLevel)
	}()

	core, logs := observer.New(zapcore.DebugLevel)
	logger = zap.New(core, zap.IncreaseLevel(level)).Sugar()

	SetLogLevel(LogLevelWarn)
	LogError("error %d", 1)
	LogWarn("warn %d", 2)
	LogInfo("info %d", 3)
	LogDebug("debug %d", 4)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "error 1", entries[0].Message)
	assert.Equal(t, "warn 2", entries[1].Message)
}

func TestSetLogFile(t *testing.T) {
	defer ResetLogOutput()

	path := filepath.Join(t.TempDir(), "logs", "medsim.log")
	require.NoError(t, SetLogFile(path))
	LogInfo("written to file")
	SyncLogs()

	assert.FileExists(t, path)
}

func TestLogLevels(t *testing.T) {
	if LogLevelError >= LogLevelWarn {
		t.Error("LogLevelError should be less than LogLevelWarn")
	}
	if LogLevelWarn >= LogLevelInfo {
		t.Error("LogLevelWarn should be less than LogLevelInfo")
	}
	if LogLevelInfo >= LogLevelDebug {
		t.Error("LogLevelInfo should be less than LogLevelDebug")
	}
}
