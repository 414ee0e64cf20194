package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_HasSaneValues(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "models", cfg.ModelDir)
	assert.Equal(t, float32(0.30), cfg.DefaultThreshold)
	assert.True(t, cfg.AntiSpoofEnabled)
	assert.NotEmpty(t, cfg.Models.VAD)
	assert.NotEmpty(t, cfg.Models.Embedding)
}

func TestLoad_OverridesOnlySpecifiedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := "model_dir: /opt/voiceprint/models\ndefault_threshold: 0.8\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/voiceprint/models", cfg.ModelDir)
	assert.Equal(t, float32(0.8), cfg.DefaultThreshold)
	assert.Equal(t, "speakers.db", cfg.StorePath)
	assert.Equal(t, "silero_vad.onnx", cfg.Models.VAD)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}
