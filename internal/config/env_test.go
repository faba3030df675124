package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnv(t *testing.T) {
	// Reset env for clean test
	ResetEnv()

	os.Setenv("SAGE_API_URL", "http://localhost:8000")
	os.Setenv("SAGE_GOOGLE_TOKEN", "tok-123")
	os.Setenv("SAGE_DEBUG", "1")
	defer func() {
		os.Unsetenv("SAGE_API_URL")
		os.Unsetenv("SAGE_GOOGLE_TOKEN")
		os.Unsetenv("SAGE_DEBUG")
		ResetEnv()
	}()

	env := Env()

	assert.Equal(t, "http://localhost:8000", env.APIURL)
	assert.Equal(t, "tok-123", env.GoogleToken)
	assert.True(t, env.Debug)
}

func TestEnvDefaults(t *testing.T) {
	ResetEnv()

	os.Unsetenv("SAGE_API_URL")
	os.Unsetenv("SAGE_LOGIN_URL")
	defer ResetEnv()

	env := Env()

	assert.Equal(t, DefaultAPIURL, env.APIURL)
	assert.Equal(t, "https://studyhelper.app/login", env.LoginURL)
	assert.False(t, env.Debug)
}

func TestEnvSingleton(t *testing.T) {
	ResetEnv()
	defer ResetEnv()

	env1 := Env()
	env2 := Env()

	// Should return same instance
	assert.Same(t, env1, env2)
}

func TestGetEnvDefault(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		envVal   string
		fallback string
		want     string
	}{
		{"env set", "TEST_KEY", "value", "default", "value"},
		{"env empty", "TEST_KEY", "", "default", "default"},
		{"env not set", "TEST_KEY_NOTSET", "", "fallback", "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envVal != "" {
				os.Setenv(tt.key, tt.envVal)
				defer os.Unsetenv(tt.key)
			}
			got := getEnvDefault(tt.key, tt.fallback)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetPaths(t *testing.T) {
	ResetPaths()
	os.Setenv("SAGE_HOME", filepath.Join(os.TempDir(), "sage-test-home"))
	defer func() {
		os.Unsetenv("SAGE_HOME")
		ResetPaths()
	}()

	paths := GetPaths()

	assert.Contains(t, paths.Home, "sage-test-home")
	assert.Equal(t, filepath.Join(paths.Home, "data"), paths.Data)
	assert.Equal(t, filepath.Join(paths.Data, "sage.db"), paths.DBFile)
}

func TestEnsureDir(t *testing.T) {
	tempDir := filepath.Join(os.TempDir(), "sage-test-ensure")
	defer os.RemoveAll(tempDir)

	os.RemoveAll(tempDir)

	err := EnsureDir(tempDir)
	assert.NoError(t, err)

	info, err := os.Stat(tempDir)
	assert.NoError(t, err)
	assert.True(t, info.IsDir())

	// Running again should be idempotent
	err = EnsureDir(tempDir)
	assert.NoError(t, err)
}
