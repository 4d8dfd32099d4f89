package config

import (
	"time"

	pkgconfig "github.com/zenon0777/payever-backend-assessment/pkg/config"
	"github.com/zenon0777/payever-backend-assessment/pkg/storage"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Cache     CacheConfig
	MQ        MQConfig `mapstructure:"mq"`
	Directory DirectoryConfig
	Storage   storage.Config
	Mail      MailConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig picks the persistence backend for users and avatars.
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // "gorm", "mongo"
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Prefix  string        `mapstructure:"prefix"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// MQConfig configures where user_created events go.
type MQConfig struct {
	Driver string `mapstructure:"driver"` // "kafka", "redis"
	URI    string `mapstructure:"uri"`
	Queue  string `mapstructure:"queue"`
}

type DirectoryConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxAvatarBytes int64         `mapstructure:"max_avatar_bytes"`
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLS      bool `mapstructure:"tls"`
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("store.driver", "gorm")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "users")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "./data/users.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "users")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.prefix", "user")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("mq.driver", "kafka")
	v.SetDefault("mq.uri", "")
	v.SetDefault("mq.queue", "main_queue")
	v.SetDefault("directory.base_url", "https://reqres.in/api/users")
	v.SetDefault("directory.api_key", "")
	v.SetDefault("directory.timeout", "10s")
	v.SetDefault("directory.max_avatar_bytes", 5<<20)
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.base_path", "./avatars")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "avatars")
	v.SetDefault("storage.s3.use_path_style", true)
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "no-reply@localhost")
	v.SetDefault("mail.tls", true)
	v.SetDefault("log.level", "info")

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("store.driver", "STORE_DRIVER")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("mongo.uri", "MONGO_URI")
	v.BindEnv("mongo.database", "MONGO_DATABASE")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("cache.enabled", "CACHE_ENABLED")
	v.BindEnv("mq.driver", "MQ_DRIVER")
	v.BindEnv("mq.uri", "MQ_URI")
	v.BindEnv("mq.queue", "MQ_QUEUE")
	v.BindEnv("directory.base_url", "DIRECTORY_BASE_URL")
	v.BindEnv("directory.api_key", "DIRECTORY_API_KEY")
	v.BindEnv("directory.max_avatar_bytes", "DIRECTORY_MAX_AVATAR_BYTES")
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.local.base_path", "AVATAR_DIR")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.bucket", "S3_BUCKET")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("mail.host", "MAIL_HOST")
	v.BindEnv("mail.port", "MAIL_PORT")
	v.BindEnv("mail.username", "MAIL_USERNAME")
	v.BindEnv("mail.password", "MAIL_PASSWORD")
	v.BindEnv("mail.from", "MAIL_FROM")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.MQ.URI == "" {
		cfg.MQ.URI = defaultBrokerURI(cfg.MQ.Driver)
	}

	return &cfg, nil
}

// defaultBrokerURI points at a broker on the local machine.
func defaultBrokerURI(driver string) string {
	if driver == "redis" {
		return "localhost:6379"
	}
	return "localhost:9092"
}
