// Package config loads stepload settings from .stepload/config.yml, the
// environment and built-in defaults.
package config

import "time"

// Loading modes.
const (
	ModeSelective = "selective"
	ModeAll       = "all"
)

// Config is the effective stepload configuration.
type Config struct {
	Version     int         `koanf:"version" yaml:"version" validate:"required"`
	Root        string      `koanf:"root" yaml:"root"`
	StepGlobs   []string    `koanf:"step_globs" yaml:"step_globs" validate:"required,min=1,dive,required"`
	ExcludeDirs []string    `koanf:"exclude_dirs" yaml:"exclude_dirs" validate:"dive,required,excludesall=/\\"`
	CommonFiles []string    `koanf:"common_files" yaml:"common_files" validate:"dive,required"`
	Features    []string    `koanf:"features" yaml:"features"`
	Tags        []string    `koanf:"tags" yaml:"tags"`
	Mode        string      `koanf:"mode" yaml:"mode" validate:"oneof=selective all"`
	Concurrency int         `koanf:"concurrency" yaml:"concurrency" validate:"min=0,max=256"`
	Cache       CacheConfig `koanf:"cache" yaml:"cache"`
	Log         LogConfig   `koanf:"log" yaml:"log"`
}

// CacheConfig controls the on-disk step index cache.
type CacheConfig struct {
	Dir      string        `koanf:"dir" yaml:"dir"`
	MaxAge   time.Duration `koanf:"max_age" yaml:"max_age" validate:"min=0"`
	Disabled bool          `koanf:"disabled" yaml:"disabled"`
}

// MarshalYAML renders MaxAge as a duration string.
func (c CacheConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Dir      string `yaml:"dir"`
		MaxAge   string `yaml:"max_age"`
		Disabled bool   `yaml:"disabled"`
	}{Dir: c.Dir, MaxAge: c.MaxAge.String(), Disabled: c.Disabled}, nil
}

// LogConfig selects log verbosity and format.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `koanf:"format" yaml:"format" validate:"omitempty,oneof=text json"`
}

// DefaultCommonFiles are step files loaded for every non-empty run.
var DefaultCommonFiles = []string{
	"src/steps/common/interaction.steps.ts",
	"src/steps/common/validation.steps.ts",
	"src/steps/common/navigation.steps.ts",
}

// defaultValues returns the koanf defaults layer.
func defaultValues() map[string]interface{} {
	return map[string]interface{}{
		"version": 1,
		"root":    "",
		"step_globs": []string{
			"test/**/steps/**/*.{ts,js}",
			"src/steps/**/*.{ts,js}",
			"**/steps/**/*_steps.go",
		},
		"exclude_dirs":   []string{"node_modules", "dist", "build", "vendor", ".git"},
		"common_files":   append([]string(nil), DefaultCommonFiles...),
		"features":       []string{"features"},
		"tags":           []string{},
		"mode":           ModeSelective,
		"concurrency":    0,
		"cache.dir":      ".cs-framework-cache",
		"cache.max_age":  "24h",
		"cache.disabled": false,
		"log.level":      "info",
		"log.format":     "text",
	}
}
