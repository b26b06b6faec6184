package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         string `yaml:"port"`
		SecureCookie bool   `yaml:"secure_cookie"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		// TTL bounds how long an untouched draft survives.
		TTL string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Auth struct {
		Secret      string `yaml:"secret"`
		Issuer      string `yaml:"issuer"`
		TeacherName string `yaml:"teacher_name"`
	} `yaml:"auth"`
	Storage struct {
		// Driver is local, supabase or memory.
		Driver      string `yaml:"driver"`
		Dir         string `yaml:"dir"`
		BaseURL     string `yaml:"base_url"`
		SupabaseURL string `yaml:"supabase_url"`
		SupabaseKey string `yaml:"supabase_key"`
		Bucket      string `yaml:"bucket"`
	} `yaml:"storage"`
	Images struct {
		MaxWidth       int     `yaml:"max_width"`
		MaxHeight      int     `yaml:"max_height"`
		WebPQuality    float32 `yaml:"webp_quality"`
		MaxUploadBytes int64   `yaml:"max_upload_bytes"`
	} `yaml:"images"`
	Results struct {
		Locale   string `yaml:"locale"`
		Timezone string `yaml:"timezone"`
	} `yaml:"results"`
}

// LoadDotEnv loads a .env file from the working directory when present.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}
}

// Load reads YAML config from path. A missing file yields defaults; selected
// environment variables override the file.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("config %s not found, using defaults", path)
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setFromEnv(&cfg.Server.Port, "PORT")
	setFromEnv(&cfg.Postgres.URL, "POSTGRES_URL")
	setFromEnv(&cfg.Redis.Addr, "REDIS_ADDR")
	setFromEnv(&cfg.Auth.Secret, "AUTH_SECRET")
	setFromEnv(&cfg.Auth.TeacherName, "TEACHER_NAME")
	setFromEnv(&cfg.Storage.SupabaseURL, "SUPABASE_PROJECT_URL")
	setFromEnv(&cfg.Storage.SupabaseKey, "SUPABASE_SERVICE_ROLE_KEY")
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if db, err := strconv.Atoi(raw); err == nil {
			cfg.Redis.DB = db
		}
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "math-quiz-service"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "local"
		if cfg.Storage.SupabaseURL != "" {
			cfg.Storage.Driver = "supabase"
		}
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "data/images"
	}
	if cfg.Storage.BaseURL == "" {
		cfg.Storage.BaseURL = "/images"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "quiz-images"
	}
	if cfg.Results.Locale == "" {
		cfg.Results.Locale = "ar-EG"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Location resolves the results timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	if c.Results.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Results.Timezone)
	if err != nil {
		log.Printf("unknown timezone %q, using UTC: %v", c.Results.Timezone, err)
		return time.UTC
	}
	return loc
}
