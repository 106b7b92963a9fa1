package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConf struct {
	Env            string `mapstructure:"env"`
	Port           int    `mapstructure:"port" validate:"min=1,max=65535"`
	ShutdownSecond int    `mapstructure:"shutdown_seconds"`
	PublicBaseURL  string `mapstructure:"public_base_url"`
}

type JWTConf struct {
	Secret string `mapstructure:"secret" validate:"required"`
	Issuer string `mapstructure:"issuer"`
}

type StorageConf struct {
	Variant    string `mapstructure:"variant" validate:"oneof=embedded memory local s3"`
	AssetsRoot string `mapstructure:"assets_root"`
}

type AWSConf struct {
	Region   string `mapstructure:"region"`
	Bucket   string `mapstructure:"bucket"`
	Endpoint string `mapstructure:"endpoint"`
}

type S3Conf struct {
	PresignTTL    int  `mapstructure:"presign_ttl_seconds"`
	CleanupStaged bool `mapstructure:"cleanup_staged"`
}

type RedisConf struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	SignedTTL int    `mapstructure:"signed_url_cache_ttl_seconds"`
}

type MongoConf struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type SQLiteConf struct {
	Path string `mapstructure:"path"`
}

type RecordsConf struct {
	Driver string     `mapstructure:"driver" validate:"oneof=memory mongo sqlite"`
	Mongo  MongoConf  `mapstructure:"mongodb"`
	SQLite SQLiteConf `mapstructure:"sqlite"`
}

type LimitsConf struct {
	VideoMaxBytes     int64    `mapstructure:"video_max_bytes" validate:"gt=0"`
	VideoTypes        []string `mapstructure:"video_types"`
	ThumbnailMaxBytes int64    `mapstructure:"thumbnail_max_bytes" validate:"gt=0"`
	ThumbnailTypes    []string `mapstructure:"thumbnail_types"`
	VerifyImages      bool     `mapstructure:"verify_images"`
}

type RateLimitConf struct {
	UploadsPerMinute int `mapstructure:"uploads_per_minute" validate:"min=0"`
	Burst            int `mapstructure:"burst"`
}

type Config struct {
	App       AppConf       `mapstructure:"app"`
	JWT       JWTConf       `mapstructure:"jwt"`
	Storage   StorageConf   `mapstructure:"storage"`
	AWS       AWSConf       `mapstructure:"aws"`
	S3        S3Conf        `mapstructure:"s3"`
	Redis     RedisConf     `mapstructure:"redis"`
	Records   RecordsConf   `mapstructure:"records"`
	Limits    LimitsConf    `mapstructure:"limits"`
	RateLimit RateLimitConf `mapstructure:"rate_limit"`
	Log       struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	// derived
	ShutdownTimeout time.Duration
	PresignTTL      time.Duration
	SignedURLTTL    time.Duration
}

// Path returns CONFIG_PATH when set, else the default config location.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/config.yaml"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8091)
	v.SetDefault("app.shutdown_seconds", 15)
	v.SetDefault("app.public_base_url", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "")
	v.SetDefault("storage.variant", "memory")
	v.SetDefault("storage.assets_root", "assets")
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.bucket", "")
	v.SetDefault("aws.endpoint", "")
	v.SetDefault("s3.presign_ttl_seconds", 600)
	v.SetDefault("s3.cleanup_staged", false)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.signed_url_cache_ttl_seconds", 0)
	v.SetDefault("records.driver", "memory")
	v.SetDefault("records.mongodb.uri", "")
	v.SetDefault("records.mongodb.database", "videos")
	v.SetDefault("records.mongodb.collection", "videos")
	v.SetDefault("records.sqlite.path", "videos.db")
	v.SetDefault("limits.video_max_bytes", int64(1<<30))
	v.SetDefault("limits.video_types", []string{"video/mp4"})
	v.SetDefault("limits.thumbnail_max_bytes", int64(10<<20))
	v.SetDefault("limits.thumbnail_types", []string{"image/jpeg", "image/png"})
	v.SetDefault("limits.verify_images", false)
	v.SetDefault("rate_limit.uploads_per_minute", 0)
	v.SetDefault("rate_limit.burst", 5)
	v.SetDefault("log.level", "info")
}

// Load reads the YAML file at path, applies env overrides (APP_PORT,
// JWT_SECRET, STORAGE_VARIANT, ...) and validates the result. A missing
// file is not an error when the environment supplies the rest.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil || !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.App.ShutdownSecond <= 0 {
		cfg.App.ShutdownSecond = 15
	}
	cfg.ShutdownTimeout = time.Duration(cfg.App.ShutdownSecond) * time.Second
	if cfg.S3.PresignTTL <= 0 {
		cfg.S3.PresignTTL = 600
	}
	cfg.PresignTTL = time.Duration(cfg.S3.PresignTTL) * time.Second
	if cfg.Redis.SignedTTL <= 0 {
		cfg.Redis.SignedTTL = cfg.S3.PresignTTL / 2
	}
	cfg.SignedURLTTL = time.Duration(cfg.Redis.SignedTTL) * time.Second
	if cfg.App.PublicBaseURL == "" {
		cfg.App.PublicBaseURL = fmt.Sprintf("http://localhost:%d", cfg.App.Port)
	}
	cfg.Storage.Variant = strings.ToLower(strings.TrimSpace(cfg.Storage.Variant))
	cfg.Records.Driver = strings.ToLower(strings.TrimSpace(cfg.Records.Driver))

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) check() error {
	if c.Storage.Variant == "s3" && (c.AWS.Bucket == "" || c.AWS.Region == "") {
		return fmt.Errorf("invalid config: aws.bucket and aws.region are required for the s3 storage variant")
	}
	if c.Records.Driver == "mongo" && c.Records.Mongo.URI == "" {
		return fmt.Errorf("invalid config: records.mongodb.uri is required for the mongo driver")
	}
	return nil
}

func (c *Config) Dev() bool { return c.App.Env == "development" }
