// Package config loads voiceprint-go runtime configuration from YAML,
// following the teacher stack's convention of plain struct-tagged config
// documents.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelPaths names the on-disk ONNX model files, overridable so callers
// can repoint them without recompiling. Defaults match the canonical
// model-directory layout.
type ModelPaths struct {
	VAD       string `yaml:"vad"`
	Embedding string `yaml:"embedding"`
	GenderAge string `yaml:"gender_age"`
	Emotion   string `yaml:"emotion"`
	AntiSpoof string `yaml:"antispoof"`
	Quality   string `yaml:"quality"`
	Language  string `yaml:"language"`
}

// Config is the top-level configuration document for a Manager/Analyzer
// pair sharing one model directory and store.
type Config struct {
	ModelDir         string     `yaml:"model_dir"`
	StorePath        string     `yaml:"store_path"`
	Models           ModelPaths `yaml:"models"`
	DefaultThreshold float32    `yaml:"default_threshold"`
	NumThreads       int        `yaml:"num_threads"`
	AntiSpoofEnabled bool       `yaml:"antispoof_enabled"`
}

// Default returns the canonical configuration: model directory "models",
// store "speakers.db", threshold 0.30, one inference thread.
func Default() Config {
	return Config{
		ModelDir:  "models",
		StorePath: "speakers.db",
		Models: ModelPaths{
			VAD:       "silero_vad.onnx",
			Embedding: "ecapa_tdnn.onnx",
			GenderAge: "gender_age.onnx",
			Emotion:   "emotion.onnx",
			AntiSpoof: "antispoof.onnx",
			Quality:   "dnsmos.onnx",
			Language:  "language.onnx",
		},
		DefaultThreshold: 0.30,
		NumThreads:       1,
		AntiSpoofEnabled: true,
	}
}

// Load reads and parses a YAML configuration file. Any field the document
// does not set keeps its Default() value; a field set explicitly (even to
// a zero value) overrides it.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
