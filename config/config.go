// Package config reads the server's settings from the environment.
package config

import (
	"os"
	"strings"
)

const (
	StorageMemory     = "memory"
	StorageFilesystem = "filesystem"
	StorageS3         = "s3"
	StorageSQLite     = "sqlite"
)

// Config holds settings that come from the environment (and .env).
type Config struct {
	// StorageType selects the persistence gateway: memory, filesystem, s3 or sqlite.
	StorageType string

	// LocalStoragePath is the snapshot file for filesystem storage.
	LocalStoragePath string

	// S3Bucket and S3Key locate the snapshot object for s3 storage.
	S3Bucket string
	S3Key    string

	// DataSourceName is passed to the sqlite driver.
	DataSourceName string

	// JWTSecret, when set, switches caller identity from the X-User-Id header
	// to HS256 bearer tokens signed with this secret.
	JWTSecret []byte

	AllowedOrigins []string

	// Port is the legacy PORT variable; empty when unset.
	Port string
}

// FromEnv reads the configuration, applying defaults for anything unset.
func FromEnv() *Config {
	return &Config{
		StorageType:      getenv("STORAGE_TYPE", StorageMemory),
		LocalStoragePath: getenv("LOCAL_STORAGE_PATH", "./data/sharedlists.json"),
		S3Bucket:         os.Getenv("S3_BUCKET_NAME"),
		S3Key:            getenv("S3_OBJECT_KEY", "sharedlists.json"),
		DataSourceName:   getenv("DATA_SOURCE_NAME", "sharedlists.db"),
		JWTSecret:        []byte(os.Getenv("JWT_SECRET")),
		AllowedOrigins:   splitList(getenv("CORS_ALLOWED_ORIGINS", "https://*,http://*")),
		Port:             os.Getenv("PORT"),
	}
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
