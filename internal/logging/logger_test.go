package logging

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestInitSentry_DisabledWithoutDSN(t *testing.T) {
	flush := InitSentry("", "test")
	assert.NotNil(t, flush)
	assert.NotPanics(t, flush)
}

func TestCaptureError_WithoutSentry(t *testing.T) {
	assert.NotPanics(t, func() {
		CaptureError("store failure", errors.New("boom"), "path", "/auth/user")
	})
}
