package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// SnapshotVersion tags every cached itinerary snapshot. A snapshot written
// by a different version is discarded, never migrated.
const SnapshotVersion = "v2"

type Env struct {
	AppAddr      string
	GinMode      string
	APIURL       string
	DataDir      string
	DBDriver     string
	DBDSN        string
	ShellVersion string
	JWTSecret    string
	BulkDelay    time.Duration
}

func LoadEnv() Env {
	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		appAddr = ":8080"
	}

	apiURL := strings.TrimSpace(os.Getenv("API_URL"))

	dataDir := strings.TrimSpace(os.Getenv("DATA_DIR"))
	if dataDir == "" {
		dataDir = "./data"
	}

	dbDriver := strings.TrimSpace(os.Getenv("DB_DRIVER"))
	if dbDriver == "" {
		dbDriver = "sqlite3"
	}

	dbDSN := strings.TrimSpace(os.Getenv("DB_DSN"))

	shellVersion := strings.TrimSpace(os.Getenv("SHELL_VERSION"))
	if shellVersion == "" {
		shellVersion = "shell-v2"
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		jwtSecret = "itinerary-dev-secret-change-me"
	}

	bulkDelay := 300 * time.Millisecond
	if raw := strings.TrimSpace(os.Getenv("BULK_DELAY_MS")); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms >= 0 {
			bulkDelay = time.Duration(ms) * time.Millisecond
		}
	}

	return Env{
		AppAddr:      appAddr,
		GinMode:      strings.TrimSpace(os.Getenv("GIN_MODE")),
		APIURL:       apiURL,
		DataDir:      dataDir,
		DBDriver:     dbDriver,
		DBDSN:        dbDSN,
		ShellVersion: shellVersion,
		JWTSecret:    jwtSecret,
		BulkDelay:    bulkDelay,
	}
}
