package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/repolens/repolens/internal/llm"
)

var v *viper.Viper

// Initialize sets up the viper configuration singleton.
// Should be called once at application startup.
func Initialize() error {
	v = viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Config search paths, in order of precedence:
	// 1. Walk up from CWD to find a project .repolens/ directory,
	//    so commands work from subdirectories
	cwd, err := os.Getwd()
	if err == nil {
		for dir := cwd; dir != filepath.Dir(dir); dir = filepath.Dir(dir) {
			projDir := filepath.Join(dir, ".repolens")
			if info, err := os.Stat(projDir); err == nil && info.IsDir() {
				v.AddConfigPath(projDir)
				break
			}
		}
	}

	// 2. User config directory (~/.config/repolens/)
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "repolens"))
	}

	// 3. Home directory (~/.repolens/)
	if homeDir, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(homeDir, ".repolens"))
	}

	// Automatic environment variable binding; env vars take precedence
	// over the config file. E.g. REPOLENS_DB, REPOLENS_JSON,
	// REPOLENS_LLM_BASE_URL maps to "llm.base-url".
	v.SetEnvPrefix("REPOLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("json", false)
	v.SetDefault("db", "")
	v.SetDefault("github.base-url", "https://api.github.com")
	v.SetDefault("github.token", "")
	v.SetDefault("llm.provider", llm.ProviderLocal)
	v.SetDefault("llm.base-url", llm.DefaultLocalBaseURL)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api-key", "")
	v.SetDefault("serve.addr", ":8484")
	v.SetDefault("log.file", "")
	v.SetDefault("scan.timeout", "2m")

	// Conventional unprefixed variables, bound explicitly
	_ = v.BindEnv("github.token", "REPOLENS_GITHUB_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv("llm.api-key", "REPOLENS_LLM_API_KEY", "ANTHROPIC_API_KEY")

	// Read config file if it exists; fall back to defaults when absent
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// GetString retrieves a string configuration value
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt retrieves an integer configuration value
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// GetDuration retrieves a duration configuration value
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// Set sets a configuration value
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// LLMConfig assembles the completion client configuration from the
// current settings.
func LLMConfig() llm.Config {
	return llm.Config{
		Provider: GetString("llm.provider"),
		BaseURL:  GetString("llm.base-url"),
		APIKey:   GetString("llm.api-key"),
		Model:    GetString("llm.model"),
	}
}

// AllSettings returns all configuration settings as a map
func AllSettings() map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v.AllSettings()
}
