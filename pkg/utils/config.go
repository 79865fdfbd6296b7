package utils

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "SERIESJP"

// Config embeds the per-concern sections so every variable is SERIESJP_<NAME>.
type Config struct {
	ServerConfig
	AuthConfig
	CatalogConfig
	LogConfig
}

type ServerConfig struct {
	Port            string `envconfig:"PORT" default:"8080"`
	SyncAddr        string `envconfig:"SYNC_ADDR" default:":7070"`
	GrpcAddr        string `envconfig:"GRPC_ADDR" default:":9090"`
	DBPath          string `envconfig:"DB_PATH"`
	RefreshSchedule string `envconfig:"REFRESH_SCHEDULE" default:"@every 15m"`
}

type AuthConfig struct {
	JWTSecret      string        `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
	JWTIssuer      string        `envconfig:"JWT_ISSUER" default:"seriesjp"`
	JWTDuration    time.Duration `envconfig:"JWT_TTL" default:"24h"`
	GoogleClientID string        `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleJWKSURL  string        `envconfig:"GOOGLE_JWKS_URL" default:"https://www.googleapis.com/oauth2/v3/certs"`
	// requests per second per client IP on /auth
	AuthRateLimit float64 `envconfig:"AUTH_RPS" default:"2"`
}

type CatalogConfig struct {
	APIKey        string        `envconfig:"TMDB_API_KEY"`
	BaseURL       string        `envconfig:"TMDB_BASE_URL" default:"https://api.themoviedb.org/3"`
	Language      string        `envconfig:"TMDB_LANGUAGE" default:"es-ES"`
	Region        string        `envconfig:"TMDB_REGION" default:"ES"`
	TMDBRateLimit float64       `envconfig:"TMDB_RPS" default:"20"`
	CacheDir      string        `envconfig:"CACHE_DIR"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"10m"`
}

type LogConfig struct {
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile     string `envconfig:"LOG_FILE"`
	LogMaxSize  int    `envconfig:"LOG_MAX_SIZE_MB" default:"10"`
	LogMaxFiles int    `envconfig:"LOG_MAX_FILES" default:"3"`
}

// LoadConfig reads an optional .env file and then SERIESJP_* variables.
// Values already present in the environment win over the file.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if cfg.JWTDuration <= 0 {
		cfg.JWTDuration = 24 * time.Hour
	}
	return cfg, nil
}
