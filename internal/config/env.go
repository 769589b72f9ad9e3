package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// envFileName is read from the config file's directory before environment
// fallbacks are applied.
const envFileName = ".env"

// loadEnvFile exports KEY=VALUE pairs from the .env file beside configPath.
// Variables already present in the process environment win.
func loadEnvFile(configPath string) error {
	if configPath == "" {
		return nil
	}
	path := filepath.Join(filepath.Dir(configPath), envFileName)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if info.IsDir() {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
