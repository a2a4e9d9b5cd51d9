package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// loadEnvFile seeds the process environment from the first readable
// .env-style file. Values already present in the environment win.
func loadEnvFile() error {
	for _, path := range []string{".env", ".env.local"} {
		if err := applyEnvFile(path); err == nil {
			fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", path)
			return nil
		}
	}
	return fmt.Errorf("no .env file found")
}

// applyEnvFile parses KEY=VALUE lines, skipping blanks and # comments and
// stripping one level of matching quotes around the value.
func applyEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

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
		key = strings.TrimSpace(key)
		value = unquote(strings.TrimSpace(value))
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

func unquote(v string) string {
	if len(v) < 2 {
		return v
	}
	if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
		return v[1 : len(v)-1]
	}
	return v
}
