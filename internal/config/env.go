package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadEnv reads a .env file and returns a map of key-value pairs.
// It ignores comments (starting with #) and empty lines.
func LoadEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	env := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = strings.TrimSpace(value)

		// Remove inline comments
		if idx := strings.Index(value, " #"); idx != -1 {
			value = strings.TrimSpace(value[:idx])
		}

		// Remove quotes if present
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		env[key] = value
	}

	return env, scanner.Err()
}

// ApplyEnvOverrides updates the configuration based on environment variables.
func ApplyEnvOverrides(cfg *Config, env map[string]string) {
	// Server
	if val, ok := env["DEBATE_SERVER_URL"]; ok && val != "" {
		cfg.Server.URL = val
	}
	if val, ok := env["DEBATE_NUM_TURNS"]; ok {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			cfg.Server.NumTurns = n
		}
	}

	// Display
	if val, ok := env["REVEAL_INTERVAL"]; ok {
		if ms, err := strconv.Atoi(val); err == nil && ms >= 0 {
			cfg.Display.RevealInterval = time.Duration(ms) * time.Millisecond
		} else if d, err := time.ParseDuration(val); err == nil && d >= 0 {
			cfg.Display.RevealInterval = d
		}
	}

	// Storage
	if val, ok := env["DB_PATH"]; ok && val != "" {
		cfg.Storage.DBPath = val
	}
	if val, ok := env["STORAGE_ENABLED"]; ok {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Storage.Enabled = b
		}
	}

	// Logging
	if val, ok := env["LOG_LEVEL"]; ok && val != "" {
		cfg.Log.Level = strings.ToLower(val)
	}
}
