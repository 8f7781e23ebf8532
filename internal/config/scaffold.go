package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const scaffoldHeader = `# stepload configuration.
# Environment variables prefixed with STEPLOAD_ override these values
# (STEPLOAD_CACHE__MAX_AGE=1h sets cache.max_age).
`

// Default returns the built-in configuration with an unresolved root.
func Default() Config {
	return Config{
		Version: 1,
		StepGlobs: []string{
			"test/**/steps/**/*.{ts,js}",
			"src/steps/**/*.{ts,js}",
			"**/steps/**/*_steps.go",
		},
		ExcludeDirs: []string{"node_modules", "dist", "build", "vendor", ".git"},
		CommonFiles: append([]string(nil), DefaultCommonFiles...),
		Features:    []string{"features"},
		Tags:        []string{},
		Mode:        ModeSelective,
		Cache: CacheConfig{
			Dir:    ".cs-framework-cache",
			MaxAge: 24 * time.Hour,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Render encodes a config as YAML.
func Render(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// Scaffold writes the default config to path. An existing file is left
// untouched and reported as an error.
func Scaffold(path string) error {
	if path == "" {
		return fmt.Errorf("config path is required")
	}
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("config path %q is a directory", path)
		}
		return fmt.Errorf("config file already exists at %q", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	body, err := Render(Default())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(scaffoldHeader), body...), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
