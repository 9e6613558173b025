package config

import (
	"os"
	"strings"
)

const DefaultPort = "8080"

func Development() bool {
	development, ok := os.LookupEnv("DEVELOPMENT")
	if !ok {
		return false
	}
	return development != "0"
}

func BasePath() string {
	return os.Getenv("APP_BASE_PATH")
}

func Port() string {
	port, ok := os.LookupEnv("APP_PORT")
	if !ok || port == "" {
		return DefaultPort
	}
	return port
}

func Addr() string {
	return ":" + Port()
}

// LogFile is where the placement service mirrors its log. Empty means
// stderr only.
func LogFile() string {
	return os.Getenv("LOG_FILE")
}

// RecordsDir is where the game server keeps records when no database is
// configured. Empty disables local records.
func RecordsDir() string {
	return os.Getenv("RECORDS_DIR")
}

// CorsOrigins lists the browser origins allowed by CORS_ORIGINS, comma
// separated. Nil allows any origin.
func CorsOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
