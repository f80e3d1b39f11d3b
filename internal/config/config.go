package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageBackendLocal = "local"
	StorageBackendS3    = "s3"
)

type Config struct {
	Server    ServerConfig
	DB        DBConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Upload    UploadConfig
	CacheTTLs CacheTTLConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimit    int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type LoggerConfig struct {
	Env   string
	Level string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type StorageConfig struct {
	Backend string
	Local   LocalStorageConfig
	S3      S3Config
}

type LocalStorageConfig struct {
	Root string
}

// S3Config describes an S3-compatible bucket. Location is the key prefix
// every object is stored under.
type S3Config struct {
	Endpoint   string
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Location   string
	PresignTTL time.Duration
}

type UploadConfig struct {
	MaxBytes          int64
	AllowedExtensions []string
}

type CacheTTLConfig struct {
	Catalog     time.Duration
	QuestionSet time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 20)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.body_limit", 60*1024*1024)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "cpa_academy")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("redis.address", "localhost:6379")

	v.SetDefault("logger.env", "development")
	v.SetDefault("logger.level", "info")

	v.SetDefault("jwt.access_token_ttl", "60m")
	v.SetDefault("jwt.refresh_token_ttl", "168h")

	v.SetDefault("storage.backend", StorageBackendLocal)
	v.SetDefault("storage.local.root", "media")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.use_ssl", true)
	v.SetDefault("storage.s3.location", "media")
	v.SetDefault("storage.s3.presign_ttl", "1h")

	v.SetDefault("upload.max_bytes", 50*1024*1024)
	v.SetDefault("upload.allowed_extensions", []string{"pdf", "doc", "docx", "ppt", "pptx", "mp4", "avi", "mov"})

	v.SetDefault("cache_ttls.catalog", "10m")
	v.SetDefault("cache_ttls.question_set", "5m")
}

func LoadConfig() (*Config, error) {
	// A missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../config")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  time.Duration(v.GetInt("server.read_timeout")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("server.write_timeout")) * time.Second,
			BodyLimit:    v.GetInt("server.body_limit"),
		},
		DB: DBConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetInt("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			DBName:   v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Logger: LoggerConfig{
			Env:   v.GetString("logger.env"),
			Level: v.GetString("logger.level"),
		},
		JWT: JWTConfig{
			SecretKey:       v.GetString("jwt.secret_key"),
			AccessTokenTTL:  v.GetDuration("jwt.access_token_ttl"),
			RefreshTokenTTL: v.GetDuration("jwt.refresh_token_ttl"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(v.GetString("storage.backend")),
			Local: LocalStorageConfig{
				Root: v.GetString("storage.local.root"),
			},
			S3: S3Config{
				Endpoint:   v.GetString("storage.s3.endpoint"),
				Region:     v.GetString("storage.s3.region"),
				Bucket:     v.GetString("storage.s3.bucket"),
				AccessKey:  v.GetString("storage.s3.access_key"),
				SecretKey:  v.GetString("storage.s3.secret_key"),
				UseSSL:     v.GetBool("storage.s3.use_ssl"),
				Location:   v.GetString("storage.s3.location"),
				PresignTTL: v.GetDuration("storage.s3.presign_ttl"),
			},
		},
		Upload: UploadConfig{
			MaxBytes:          v.GetInt64("upload.max_bytes"),
			AllowedExtensions: v.GetStringSlice("upload.allowed_extensions"),
		},
		CacheTTLs: CacheTTLConfig{
			Catalog:     v.GetDuration("cache_ttls.catalog"),
			QuestionSet: v.GetDuration("cache_ttls.question_set"),
		},
	}

	// Override with the short env names used by the deployment manifests
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.DB.Host = host
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.DB.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		cfg.DB.DBName = dbname
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		cfg.Redis.Address = redisAddress
	}
	if secret := os.Getenv("JWT_SECRET_KEY"); secret != "" {
		cfg.JWT.SecretKey = secret
	}
	if accessKey := os.Getenv("AWS_ACCESS_KEY_ID"); accessKey != "" {
		cfg.Storage.S3.AccessKey = accessKey
	}
	if secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY"); secretKey != "" {
		cfg.Storage.S3.SecretKey = secretKey
	}
	if bucket := os.Getenv("AWS_STORAGE_BUCKET_NAME"); bucket != "" {
		cfg.Storage.S3.Bucket = bucket
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageBackendLocal:
		if c.Storage.Local.Root == "" {
			return fmt.Errorf("storage.local.root must be set for the local backend")
		}
	case StorageBackendS3:
		if c.Storage.S3.Bucket == "" || c.Storage.S3.Endpoint == "" {
			return fmt.Errorf("storage.s3.endpoint and storage.s3.bucket must be set for the s3 backend")
		}
	default:
		return fmt.Errorf("unsupported storage backend: %q", c.Storage.Backend)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection URL used by the pgx stdlib driver.
func (c *Config) GetDSN() string {
	return c.dbURL("postgres")
}

// MigrationURL returns the same database addressed with golang-migrate's pgx5 scheme.
func (c *Config) MigrationURL() string {
	return c.dbURL("pgx5")
}

func (c *Config) dbURL(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     fmt.Sprintf("%s:%d", c.DB.Host, c.DB.Port),
		Path:     "/" + c.DB.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DB.SSLMode),
	}
	return u.String()
}
