package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend holds the six settings that identify the managed backend.
// All of them are required.
type Backend struct {
	Endpoint     string
	ProjectID    string
	BucketID     string
	DatabaseID   string
	UsersTableID string
	VideoTableID string
}

// Schema names created by the migrations. The row tables are not created
// dynamically, so the backend ids must name them.
const (
	SchemaDatabaseID   = "vidshare"
	SchemaUsersTableID = "users"
	SchemaVideoTableID = "videos"
)

// CheckSchema reports an error when the database or table ids do not name
// the tables the migrations create.
func (b Backend) CheckSchema() error {
	for _, c := range []struct{ name, got, want string }{
		{"BACKEND_DATABASE_ID", b.DatabaseID, SchemaDatabaseID},
		{"BACKEND_USERS_TABLE_ID", b.UsersTableID, SchemaUsersTableID},
		{"BACKEND_VIDEOS_TABLE_ID", b.VideoTableID, SchemaVideoTableID},
	} {
		if c.got != c.want {
			return fmt.Errorf("%s must be %q (got %q)", c.name, c.want, c.got)
		}
	}
	return nil
}

type Config struct {
	Backend Backend

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort string
	LogLevel   string

	JWTSecret     string
	SessionMaxAge time.Duration

	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string

	RedisURL string

	MediaCacheDir      string
	CORSAllowedOrigins []string
	ExpoPushEnabled    bool

	SessionCleanupSchedule string
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	// .env is optional; the environment always wins
	_ = godotenv.Load()

	cfg := &Config{}

	required := []struct {
		name string
		dst  *string
	}{
		{"BACKEND_ENDPOINT", &cfg.Backend.Endpoint},
		{"BACKEND_PROJECT_ID", &cfg.Backend.ProjectID},
		{"BACKEND_STORAGE_BUCKET_ID", &cfg.Backend.BucketID},
		{"BACKEND_DATABASE_ID", &cfg.Backend.DatabaseID},
		{"BACKEND_USERS_TABLE_ID", &cfg.Backend.UsersTableID},
		{"BACKEND_VIDEOS_TABLE_ID", &cfg.Backend.VideoTableID},
		{"DB_HOST", &cfg.DBHost},
		{"DB_PORT", &cfg.DBPort},
		{"DB_USER", &cfg.DBUser},
		{"DB_PASSWORD", &cfg.DBPassword},
		{"DB_NAME", &cfg.DBName},
		{"JWT_SECRET", &cfg.JWTSecret},
		{"S3_ENDPOINT", &cfg.S3Endpoint},
		{"S3_ACCESS_KEY_ID", &cfg.S3AccessKeyID},
		{"S3_SECRET_ACCESS_KEY", &cfg.S3SecretAccessKey},
	}
	for _, r := range required {
		v := strings.TrimSpace(os.Getenv(r.name))
		if v == "" {
			return nil, fmt.Errorf("%s is required", r.name)
		}
		*r.dst = v
	}
	cfg.Backend.Endpoint = strings.TrimSuffix(cfg.Backend.Endpoint, "/")
	if err := cfg.Backend.CheckSchema(); err != nil {
		return nil, err
	}

	cfg.DBSSLMode = getEnv("DB_SSLMODE", "require")
	cfg.ServerPort = getEnv("SERVER_PORT", "8080")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.S3Region = getEnv("S3_REGION", "auto")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.MediaCacheDir = getEnv("MEDIA_CACHE_DIR", filepath.Join(os.TempDir(), "vidshare"))
	cfg.SessionCleanupSchedule = getEnv("SESSION_CLEANUP_SCHEDULE", "@daily")

	maxAge, err := strconv.Atoi(os.Getenv("SESSION_MAX_AGE"))
	if err != nil || maxAge <= 0 {
		maxAge = 2592000
	}
	cfg.SessionMaxAge = time.Duration(maxAge) * time.Second

	cfg.ExpoPushEnabled, _ = strconv.ParseBool(os.Getenv("EXPO_PUSH_ENABLED"))

	cfg.CORSAllowedOrigins = []string{"*"}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		parsed := make([]string, 0)
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				parsed = append(parsed, o)
			}
		}
		if len(parsed) > 0 {
			cfg.CORSAllowedOrigins = parsed
		}
	}

	return cfg, nil
}

// ViewURL returns the public, non-expiring URL for an uploaded file.
func (b Backend) ViewURL(fileID string) string {
	return fmt.Sprintf("%s/storage/buckets/%s/files/%s/view?project=%s",
		b.Endpoint, b.BucketID, fileID, url.QueryEscape(b.ProjectID))
}

// AvatarURL returns the initials avatar URL for a username. Spaces in the
// name are encoded as %20.
func (b Backend) AvatarURL(name string) string {
	return fmt.Sprintf("%s/avatars/initials?name=%s&project=%s",
		b.Endpoint, strings.ReplaceAll(url.QueryEscape(name), "+", "%20"), url.QueryEscape(b.ProjectID))
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
