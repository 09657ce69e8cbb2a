// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Recognized key files are listed in ConfigKeys.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ConfigKeys maps secret file names to the configuration keys they fill.
var ConfigKeys = map[string]string{
	"github-token":        "github_token",
	"atlassian-api-token": "atlassian_api_token",
	"greenhouse-api-key":  "greenhouse_api_key",
	"anthropic-api-key":   "anthropic_api_key",
	"gemini-api-key":      "gemini_api_key",
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged at warn level but do not abort.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply hands every recognized secret to setDefault under its configuration
// key, so environment variables and config files still take precedence. It
// returns the applied file names, sorted. Unrecognized files are ignored.
func Apply(secrets map[string]string, setDefault func(key string, value any)) []string {
	applied := make([]string, 0, len(secrets))
	for name, value := range secrets {
		key, ok := ConfigKeys[name]
		if !ok {
			continue
		}
		setDefault(key, value)
		applied = append(applied, name)
	}
	sort.Strings(applied)
	return applied
}
