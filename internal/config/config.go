package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port    string
	AppName string

	StorageBackend string // "memory", "sqlite" or "firestore"
	SQLitePath     string

	GCPProjectID string
	GCPLocation  string
	ModelName    string
	UseMockLLM   bool // true = deterministic replies, no Vertex call

	DedupTTL          time.Duration
	DelegationTimeout time.Duration
}

// Load reads all TANDA_* env vars and builds the config.
func Load() *Config {
	v := viper.New()
	v.SetEnvPrefix("TANDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("app_name", "tanda-bot")
	v.SetDefault("storage_backend", "sqlite")
	v.SetDefault("sqlite_path", "data/tanda.db")
	v.SetDefault("gcp_location", "us-central1")
	v.SetDefault("model_name", "gemini-2.5-flash-lite")
	v.SetDefault("use_mock_llm", true)
	v.SetDefault("dedup_ttl", 10*time.Minute)
	v.SetDefault("delegation_timeout", 30*time.Second)

	cfg := &Config{
		Port:              v.GetString("port"),
		AppName:           v.GetString("app_name"),
		StorageBackend:    v.GetString("storage_backend"),
		SQLitePath:        v.GetString("sqlite_path"),
		GCPProjectID:      v.GetString("gcp_project"),
		GCPLocation:       v.GetString("gcp_location"),
		ModelName:         v.GetString("model_name"),
		UseMockLLM:        v.GetBool("use_mock_llm"),
		DedupTTL:          v.GetDuration("dedup_ttl"),
		DelegationTimeout: v.GetDuration("delegation_timeout"),
	}

	// Minimal validation for the GCP-backed options
	if cfg.StorageBackend == "firestore" && cfg.GCPProjectID == "" {
		log.Fatal("TANDA_GCP_PROJECT must be set for the firestore backend")
	}
	if !cfg.UseMockLLM && cfg.GCPProjectID == "" {
		log.Fatal("TANDA_GCP_PROJECT must be set when TANDA_USE_MOCK_LLM is off")
	}

	return cfg
}
