package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment keys for optional external services. An empty value disables
// the adapter or resolution strategy that needs it.
const (
	KeyAdzunaAppID     = "ADZUNA_APP_ID"
	KeyAdzunaAppKey    = "ADZUNA_APP_KEY"
	KeyRapidAPI        = "RAPIDAPI_KEY"
	KeyHunter          = "HUNTER_API_KEY"
	KeyProxycurl       = "PROXYCURL_API_KEY"
	KeyGeneratedPhotos = "GENERATED_PHOTOS_API_KEY"
	KeyCronSecret      = "CRON_SECRET"
	KeySlackWebhook    = "SLACK_WEBHOOK_URL"
	KeyExportAccessKey = "EXPORT_ACCESS_KEY"
	KeyExportSecretKey = "EXPORT_SECRET_KEY"
)

var knownKeys = []string{
	KeyAdzunaAppID,
	KeyAdzunaAppKey,
	KeyRapidAPI,
	KeyHunter,
	KeyProxycurl,
	KeyGeneratedPhotos,
	KeyCronSecret,
	KeySlackWebhook,
	KeyExportAccessKey,
	KeyExportSecretKey,
}

// Keys holds the service credentials present in the environment.
type Keys map[string]string

// Get returns the trimmed value for key, "" when absent.
func (k Keys) Get(key string) string {
	return strings.TrimSpace(k[key])
}

// Has reports whether every listed key is present and non-empty.
func (k Keys) Has(keys ...string) bool {
	for _, key := range keys {
		if k.Get(key) == "" {
			return false
		}
	}
	return true
}

// DefaultEnvFile is read by LoadKeys when no file is named. It may be absent.
const DefaultEnvFile = ".env"

// LoadKeys loads a .env file and returns the known service keys. An empty
// envFile means DefaultEnvFile, which is skipped when it does not exist; a
// named file must exist and parse. Variables already set in the process
// environment win over .env entries.
func LoadKeys(envFile string) (Keys, error) {
	optional := envFile == ""
	if optional {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		if !optional || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	keys := make(Keys, len(knownKeys))
	for _, k := range knownKeys {
		if v := os.Getenv(k); v != "" {
			keys[k] = v
		}
	}
	return keys, nil
}

// ApplyKeys copies environment-provided secrets into config sections that
// can also be set in YAML.
func (c *Config) ApplyKeys(keys Keys) {
	c.Keys = keys
	if c.Notification.WebhookURL == "" && keys.Get(KeySlackWebhook) != "" {
		c.Notification.WebhookURL = keys.Get(KeySlackWebhook)
	}
	if c.Export.AccessKey == "" {
		c.Export.AccessKey = keys.Get(KeyExportAccessKey)
	}
	if c.Export.SecretKey == "" {
		c.Export.SecretKey = keys.Get(KeyExportSecretKey)
	}
}
