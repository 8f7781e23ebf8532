package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nested keys: STEPLOAD_CACHE__MAX_AGE=1h sets cache.max_age.
const EnvPrefix = "STEPLOAD_"

// listKeys are split on commas when set from the environment.
var listKeys = map[string]bool{
	"step_globs":   true,
	"exclude_dirs": true,
	"common_files": true,
	"features":     true,
	"tags":         true,
}

// Load layers defaults, the config file at path (skipped when path is
// empty) and STEPLOAD_ environment variables, then normalizes and validates
// the result.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	for key, value := range defaultValues() {
		if err := k.Set(key, value); err != nil {
			return Config{}, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envTransform), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	baseDir := ""
	if path != "" {
		baseDir = RepoRootFromConfigPath(path)
	}
	if err := Normalize(&cfg, baseDir); err != nil {
		return Config{}, err
	}
	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envTransform maps STEPLOAD_CACHE__MAX_AGE to cache.max_age and splits
// list values on commas.
func envTransform(key, value string) (string, interface{}) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if listKeys[key] {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return key, out
	}
	return key, value
}
