package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Storage struct {
		Bucket    string `yaml:"bucket"`     // destination bucket for seller documents
		Namespace string `yaml:"namespace"`  // key prefix inside the bucket
		Endpoint  string `yaml:"endpoint"`   // S3-compatible endpoint (Supabase: <project>.supabase.co/storage/v1/s3)
		BaseURL   string `yaml:"base_url"`   // public object URL base
		AccessKey string `yaml:"access_key"` //
		SecretKey string `yaml:"secret_key"` //
		Region    string `yaml:"region"`     // "auto" unless the provider says otherwise

		// Legacy filesystem documents, read-only during the migration window.
		LegacyBasePath string `yaml:"legacy_base_path"`
	} `yaml:"storage"`

	Upload struct {
		MaxSize      int64    `yaml:"max_size"` // bytes
		AllowedTypes []string `yaml:"allowed_types"`
	} `yaml:"upload"`

	SMTP struct {
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		Username  string `yaml:"username"`
		Password  string `yaml:"password"`
		FromEmail string `yaml:"from_email"`
		FromName  string `yaml:"from_name"`
	} `yaml:"smtp"`

	Workers struct {
		VerifyInterval int `yaml:"verify_interval"` // hours between storage verification sweeps, 0 disables
	} `yaml:"workers"`
}

var AppConfig *Config

// LoadConfig reads config.yaml, with DATABASE_URL in the environment
// switching to pure env configuration (tests, containers).
func LoadConfig() {
	var cfg Config

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.TTL = 60

	cfg.Storage.Bucket = os.Getenv("STORAGE_BUCKET")
	cfg.Storage.Endpoint = os.Getenv("STORAGE_ENDPOINT")
	cfg.Storage.BaseURL = os.Getenv("STORAGE_BASE_URL")
	cfg.Storage.AccessKey = os.Getenv("STORAGE_ACCESS_KEY")
	cfg.Storage.SecretKey = os.Getenv("STORAGE_SECRET_KEY")
	cfg.Storage.LegacyBasePath = os.Getenv("LEGACY_UPLOADS_PATH")

	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 4000
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "seller-documents"
	}
	if cfg.Storage.Namespace == "" {
		cfg.Storage.Namespace = "documents"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "auto"
	}
	if cfg.Storage.LegacyBasePath == "" {
		cfg.Storage.LegacyBasePath = "./uploads"
	}
	if cfg.Upload.MaxSize == 0 {
		cfg.Upload.MaxSize = 10 * 1024 * 1024 // 10MB
	}
	if len(cfg.Upload.AllowedTypes) == 0 {
		cfg.Upload.AllowedTypes = []string{
			"image/jpeg", "image/jpg", "image/png",
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		}
	}
	if cfg.Workers.VerifyInterval == 0 {
		cfg.Workers.VerifyInterval = 24
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
