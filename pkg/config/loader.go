package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading/saving.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
)

// EnvConfigPath names the environment variable consulted by Discover.
const EnvConfigPath = "MOCKSERVER_CONFIG"

// DiscoveryOrder lists the file names Discover looks for in a directory.
var DiscoveryOrder = []string{
	"mockserver.yaml",
	"mockserver.yml",
	"mockserver.json",
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// LoadFromFile reads a ServerConfig from a JSON or YAML file, on top of
// DefaultServerConfig. Environment variables are expanded before parsing.
func LoadFromFile(path string) (*ServerConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	//nolint:gosec // G304: path is supplied by the user
	file, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	data = []byte(ExpandEnvVars(string(data)))
	if isYAML(path) {
		return ParseYAML(data)
	}
	return ParseJSON(data)
}

// ParseJSON parses JSON bytes over the defaults and validates the result.
func ParseJSON(data []byte) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// ParseYAML parses YAML bytes over the defaults and validates the result.
func ParseYAML(data []byte) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidYAML, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes cfg to path using an atomic rename. The format follows
// the extension, like LoadFromFile.
func SaveToFile(path string, cfg *ServerConfig) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpPath := path + ".tmp"
	//nolint:gosec // G306: configuration is not secret
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// Discover returns the config file to use when none was given: the path in
// MOCKSERVER_CONFIG, or the first DiscoveryOrder file found in dir. It
// returns ErrFileNotFound when there is none.
func Discover(dir string) (string, error) {
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("%w: %s points to %s", ErrFileNotFound, EnvConfigPath, envPath)
		}
		return envPath, nil
	}

	for _, name := range DiscoveryOrder {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrFileNotFound, dir)
}

// ExpandEnvVars expands ${VAR_NAME} and ${VAR_NAME:-default} references.
// Unset variables without a default expand to the empty string.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		if len(submatch) >= 3 {
			return submatch[2]
		}
		return ""
	})
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
