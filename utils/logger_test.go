package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, log.LevelDebug, lvl)

	lvl, err = ParseLogLevel("")
	require.NoError(t, err)
	assert.Equal(t, log.LevelInfo, lvl)

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestSetupLogger_MirrorsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingest.log")
	closer, err := SetupLogger("info", path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = closer.Close()
		log.SetOutput(os.Stderr)
	})

	log.Infof("[TEST] hello %d", 42)
	log.Debugf("[TEST] hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[TEST] hello 42")
	assert.NotContains(t, string(data), "hidden")
}
