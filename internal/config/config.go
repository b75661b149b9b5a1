// Package config resolves runtime settings by layering defaults, an
// optional properties file, and environment variables, in that order.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures all runtime settings required by the biodigestor
// backend.
type Config struct {
	// ListenAddress defines the TCP address used by the HTTP server.
	ListenAddress string
	// LogFilePath is the path to the service log file.
	LogFilePath string
	// HTTPReadTimeout bounds the time to read incoming requests.
	HTTPReadTimeout time.Duration
	// HTTPWriteTimeout bounds the time to write responses.
	HTTPWriteTimeout time.Duration
	// ShutdownTimeout limits graceful shutdown attempts.
	ShutdownTimeout time.Duration
	// PropertiesPath records the path used to load property values.
	PropertiesPath string

	// Database connection settings.
	DBUser     string
	DBPassword string
	DBHost     string
	DBName     string

	// ModelDir holds the exported classification artifacts.
	ModelDir string

	// KafkaBrokers lists bootstrap brokers for alert publishing; empty
	// disables publishing entirely.
	KafkaBrokers []string
	// AlertTopic is the topic alert notifications are written to.
	AlertTopic string
}

const (
	defaultListenAddress = ":8080"
	defaultLogFile       = "logs/biodigestor.log"
	defaultReadTimeout   = 5 * time.Second
	defaultWriteTimeout  = 10 * time.Second
	defaultShutdown      = 5 * time.Second
	defaultPropsPath     = "biodigestor.properties"
	defaultDBUser        = "root"
	defaultDBPassword    = "1234"
	defaultDBHost        = "localhost"
	defaultDBName        = "biodigestor_db"
	defaultModelDir      = "ml"
	defaultAlertTopic    = "biodigestor.alertas"
)

// Load resolves the configuration. A .env file in the working directory
// is applied first (credentials live there in deployments), then the
// defaults, then the properties file, then environment variables. The
// properties file location can be overridden with
// BIODIGESTOR_PROPERTIES_PATH.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddress:    defaultListenAddress,
		LogFilePath:      filepath.Clean(defaultLogFile),
		HTTPReadTimeout:  defaultReadTimeout,
		HTTPWriteTimeout: defaultWriteTimeout,
		ShutdownTimeout:  defaultShutdown,
		DBUser:           defaultDBUser,
		DBPassword:       defaultDBPassword,
		DBHost:           defaultDBHost,
		DBName:           defaultDBName,
		ModelDir:         defaultModelDir,
		AlertTopic:       defaultAlertTopic,
	}

	propsPath := strings.TrimSpace(os.Getenv("BIODIGESTOR_PROPERTIES_PATH"))
	if propsPath == "" {
		propsPath = defaultPropsPath
	}
	cfg.PropertiesPath = propsPath
	if err := cfg.loadProperties(propsPath); err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadProperties applies key=value pairs from the file when it exists.
// A missing file is not an error: defaults plus env cover the minimal
// setup.
func (c *Config) loadProperties(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open properties file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			return fmt.Errorf("properties line %d: missing '='", line)
		}
		if err := c.apply(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("properties line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read properties file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	for key, env := range map[string]string{
		"listen.address":     "BIODIGESTOR_LISTEN_ADDRESS",
		"log.file":           "BIODIGESTOR_LOG_FILE",
		"http.read.timeout":  "BIODIGESTOR_HTTP_READ_TIMEOUT",
		"http.write.timeout": "BIODIGESTOR_HTTP_WRITE_TIMEOUT",
		"shutdown.timeout":   "BIODIGESTOR_SHUTDOWN_TIMEOUT",
		"db.user":            "DB_USER",
		"db.password":        "DB_PASSWORD",
		"db.host":            "DB_HOST",
		"db.name":            "DB_NAME",
		"model.dir":          "BIODIGESTOR_MODEL_DIR",
		"kafka.brokers":      "BIODIGESTOR_KAFKA_BROKERS",
		"kafka.alert.topic":  "BIODIGESTOR_ALERT_TOPIC",
	} {
		value, ok := os.LookupEnv(env)
		if !ok {
			continue
		}
		if err := c.apply(key, value); err != nil {
			return fmt.Errorf("env %s: %w", env, err)
		}
	}
	return nil
}

func (c *Config) apply(key, value string) error {
	switch key {
	case "listen.address":
		c.ListenAddress = value
	case "log.file":
		c.LogFilePath = filepath.Clean(value)
	case "http.read.timeout":
		return parseDuration(value, &c.HTTPReadTimeout)
	case "http.write.timeout":
		return parseDuration(value, &c.HTTPWriteTimeout)
	case "shutdown.timeout":
		return parseDuration(value, &c.ShutdownTimeout)
	case "db.user":
		c.DBUser = value
	case "db.password":
		c.DBPassword = value
	case "db.host":
		c.DBHost = value
	case "db.name":
		c.DBName = value
	case "model.dir":
		c.ModelDir = filepath.Clean(value)
	case "kafka.brokers":
		c.KafkaBrokers = splitAndTrim(value)
	case "kafka.alert.topic":
		c.AlertTopic = value
	default:
		return fmt.Errorf("unknown key %q", key)
	}
	return nil
}

func parseDuration(value string, dst *time.Duration) error {
	if seconds, err := strconv.Atoi(value); err == nil {
		*dst = time.Duration(seconds) * time.Second
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration %q", value)
	}
	*dst = d
	return nil
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
