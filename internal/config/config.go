package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Gemini  GeminiConfig
	Storage StorageConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and the platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.sokolink.app) and secrets
// fall back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/sokolink/config.json
// and secrets live in a mode-0600 secrets file under $XDG_DATA_HOME/sokolink.
//
// A .env file in the working directory is read first, then environment
// variables (SOKOLINK_*) override backend values on all platforms.
func Load() (Config, error) {
	_ = godotenv.Load()
	return loadWith(newPlatformBackend(), NewKeychain())
}

func loadWith(b ConfigBackend, kc Keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try the platform secret store for the API key if still empty.
	if cfg.Gemini.APIKey == "" {
		if key, err := kc.Get(keychainService, "gemini_api_key"); err == nil {
			cfg.Gemini.APIKey = strings.TrimSpace(key)
		}
	}

	if cfg.Gemini.APIKey == "" {
		msg := "missing required config: Gemini API key. " +
			"Set it via environment variable SOKOLINK_GEMINI_API_KEY" +
			apiKeyHint()
		return Config{}, fmt.Errorf("%s", msg)
	}

	return cfg, nil
}
