package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"stepload/internal/config"
)

// resolveConfigPath normalizes a config path or finds it from CWD. An empty
// result means no config file was found and defaults apply.
func resolveConfigPath(configPath string) (string, error) {
	if strings.TrimSpace(configPath) == "" {
		found, err := config.FindConfigPath("")
		if err != nil {
			return "", nil
		}
		return found, nil
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return abs, nil
}
