// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// HTTP Server
	Port string

	// Logging
	LogLevel string

	// Storage backend: "memory" or "firestore"
	StoreBackend string

	// Google Cloud
	GCPProjectID string

	// Catalog override (optional); the built-in catalog is used when unset
	CatalogBucket string
	CatalogObject string

	// Rationale generation: "template" or "gemini"
	RationaleBackend string

	// BigQuery export
	BigQueryDataset string
	BigQueryTable   string

	// Notion sync
	NotionToken      string
	NotionDatabaseID string

	// Job queue
	JobQueueSize int
}

func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		StoreBackend:     getEnv("STORE_BACKEND", "memory"),
		GCPProjectID:     getEnv("GCP_PROJECT_ID", ""),
		CatalogBucket:    getEnv("CATALOG_BUCKET", ""),
		CatalogObject:    getEnv("CATALOG_OBJECT", "catalog.json"),
		RationaleBackend: getEnv("RATIONALE_BACKEND", "template"),
		BigQueryDataset:  getEnv("BIGQUERY_DATASET", "spendsense"),
		BigQueryTable:    getEnv("BIGQUERY_TABLE", "persona_assignments"),
		NotionToken:      getEnv("NOTION_TOKEN", ""),
		NotionDatabaseID: getEnv("NOTION_DATABASE_ID", ""),
		JobQueueSize:     getEnvInt("JOB_QUEUE_SIZE", 100),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.StoreBackend {
	case "memory":
	case "firestore":
		if c.GCPProjectID == "" {
			errors = append(errors, "GCP_PROJECT_ID is required when using the firestore backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid store backend '%s': must be 'memory' or 'firestore'", c.StoreBackend))
	}

	switch c.RationaleBackend {
	case "template", "gemini":
	default:
		errors = append(errors, fmt.Sprintf("invalid rationale backend '%s': must be 'template' or 'gemini'", c.RationaleBackend))
	}

	if c.CatalogBucket != "" && c.CatalogObject == "" {
		errors = append(errors, "CATALOG_OBJECT cannot be empty when CATALOG_BUCKET is set")
	}

	if c.NotionToken != "" && c.NotionDatabaseID == "" {
		errors = append(errors, "NOTION_DATABASE_ID is required when NOTION_TOKEN is set")
	}

	if c.JobQueueSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid job queue size %d: must be at least 1", c.JobQueueSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
