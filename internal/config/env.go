// Package config provides centralized configuration management.
// All environment lookups live here instead of scattered os.Getenv calls.
package config

import (
	"os"
	"path/filepath"
	"sync"
)

// DefaultAPIURL is the hosted Study Helper backend.
const DefaultAPIURL = "https://api.studyhelper.app"

// SageEnv holds all sage environment variables.
type SageEnv struct {
	// APIURL is the backend base URL (SAGE_API_URL)
	APIURL string

	// GoogleToken is a pre-obtained Google ID token for login (SAGE_GOOGLE_TOKEN)
	GoogleToken string

	// LoginURL is the hosted login page for browser-assisted login (SAGE_LOGIN_URL)
	LoginURL string

	// Debug enables structured logging to stderr (SAGE_DEBUG)
	Debug bool

	// NoColor disables colored output (NO_COLOR)
	NoColor bool
}

var (
	env     *SageEnv
	envOnce sync.Once
)

// Env returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Env() *SageEnv {
	envOnce.Do(func() {
		env = &SageEnv{
			APIURL:      getEnvDefault("SAGE_API_URL", DefaultAPIURL),
			GoogleToken: os.Getenv("SAGE_GOOGLE_TOKEN"),
			LoginURL:    getEnvDefault("SAGE_LOGIN_URL", "https://studyhelper.app/login"),
			Debug:       os.Getenv("SAGE_DEBUG") == "1",
			NoColor:     os.Getenv("NO_COLOR") != "",
		}
	})
	return env
}

// ResetEnv resets the cached environment (for testing).
func ResetEnv() {
	envOnce = sync.Once{}
	env = nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Paths holds standard sage directory paths.
type Paths struct {
	// Home is the sage home directory (~/.sage)
	Home string

	// Data is the data directory (~/.sage/data)
	Data string

	// DBFile is the local sqlite database (~/.sage/data/sage.db)
	DBFile string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
// SAGE_HOME overrides the default ~/.sage location.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		sageHome := os.Getenv("SAGE_HOME")
		if sageHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				home = "."
			}
			sageHome = filepath.Join(home, ".sage")
		}

		paths = &Paths{
			Home:   sageHome,
			Data:   filepath.Join(sageHome, "data"),
			DBFile: filepath.Join(sageHome, "data", "sage.db"),
		}
	})
	return paths
}

// ResetPaths resets the cached paths (for testing).
func ResetPaths() {
	pathsOnce = sync.Once{}
	paths = nil
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
