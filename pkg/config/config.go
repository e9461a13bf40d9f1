package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Abraxas-365/bastion/iam/auth"
)

// Config configuración principal de la aplicación
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Pipeline   PipelineConfig
	Remote     RemoteConfig
	OperateLog OperateLogConfig
	Storage    StorageConfig
	Auth       auth.Config
}

// ServerConfig configuración del servidor HTTP
type ServerConfig struct {
	Port            string
	Environment     string
	BodyLimit       int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig configuración de PostgreSQL
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configuración de Redis
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// PipelineConfig configuración del pipeline de filtros
type PipelineConfig struct {
	// DemoMode activa el write-guard: bloquea mutaciones de usuarios
	// autenticados en despliegues de demostración
	DemoMode bool

	// BodyCacheExcludedPrefixes rutas exentas del cacheo de body
	// (endpoints de streaming, health, métricas)
	BodyCacheExcludedPrefixes []string

	// AdminAPIPrefix / AppAPIPrefix clasifican el tipo de identidad
	// cuando el request no trae un atributo explícito
	AdminAPIPrefix string
	AppAPIPrefix   string
}

// RemoteConfig configuración de dependencias remotas
type RemoteConfig struct {
	LogServiceURL        string
	PermissionServiceURL string
	Timeout              time.Duration
}

// OperateLogConfig configuración del módulo de auditoría
type OperateLogConfig struct {
	QueueKey  string
	FlushSpec string
	FlushMax  int
}

// StorageConfig configuración del object store (S3)
type StorageConfig struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Load carga la configuración desde variables de entorno
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			BodyLimit:       getIntEnv("BODY_LIMIT_BYTES", 4*1024*1024),
			ReadTimeout:     getDurationEnv("READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", getEnv("POSTGRES_HOST", "localhost")),
			Port:            getEnv("DB_PORT", getEnv("POSTGRES_PORT", "5432")),
			User:            getEnv("DB_USER", getEnv("POSTGRES_USER", "postgres")),
			Password:        getEnv("DB_PASSWORD", getEnv("POSTGRES_PASSWORD", "postgres")),
			DBName:          getEnv("DB_NAME", getEnv("POSTGRES_DB", "bastion")),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Pipeline: PipelineConfig{
			DemoMode:                  getBoolEnv("DEMO_MODE", false),
			BodyCacheExcludedPrefixes: getListEnv("BODY_CACHE_EXCLUDED_PREFIXES", []string{"/health", "/metrics", "/admin-api/infra/stream"}),
			AdminAPIPrefix:            getEnv("ADMIN_API_PREFIX", "/admin-api"),
			AppAPIPrefix:              getEnv("APP_API_PREFIX", "/app-api"),
		},
		Remote: RemoteConfig{
			LogServiceURL:        getEnv("LOG_SERVICE_URL", "http://localhost:9090"),
			PermissionServiceURL: getEnv("PERMISSION_SERVICE_URL", "http://localhost:9091"),
			Timeout:              getDurationEnv("REMOTE_TIMEOUT", 3*time.Second),
		},
		OperateLog: OperateLogConfig{
			QueueKey:  getEnv("OPERATE_LOG_QUEUE_KEY", "bastion:operatelog:queue"),
			FlushSpec: getEnv("OPERATE_LOG_FLUSH_SPEC", "@every 1m"),
			FlushMax:  getIntEnv("OPERATE_LOG_FLUSH_MAX", 200),
		},
		Storage: StorageConfig{
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    getEnv("S3_BUCKET", "bastion-uploads"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
		Auth: LoadAuthConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate valida la configuración
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Pipeline.AdminAPIPrefix == "" || c.Pipeline.AppAPIPrefix == "" {
		return fmt.Errorf("ADMIN_API_PREFIX and APP_API_PREFIX are required")
	}

	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("invalid auth config: %w", err)
	}

	return nil
}

// GetDSN retorna el DSN de PostgreSQL
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetAddr retorna la dirección de Redis
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intValue int
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

// LoadAuthConfig carga la configuración de autenticación desde variables de entorno
func LoadAuthConfig() auth.Config {
	return auth.Config{
		JWT: auth.JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "default-secret-change-in-production"),
			AccessTokenTTL: getDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
			SessionTTL:     getDurationEnv("SESSION_TTL", 24*time.Hour),
			Issuer:         getEnv("JWT_ISSUER", "bastion"),
		},
		PasswordHashCost: getIntEnv("PASSWORD_HASH_COST", 0),
	}
}
