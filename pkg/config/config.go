package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env string

	Database DatabaseConfig
	Backup   BackupConfig
	Export   ExportConfig
	Roster   RosterConfig
	Audit    AuditConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Path        string
	BusyTimeout time.Duration
}

// BackupConfig locates the directory receiving timestamped snapshots.
type BackupConfig struct {
	Dir string
}

// ExportConfig locates the directory receiving rendered export files.
type ExportConfig struct {
	Dir string
}

// RosterConfig tunes browsing defaults.
type RosterConfig struct {
	PageSize int
}

// AuditConfig caps the audit viewer.
type AuditConfig struct {
	ViewLimit int
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Database = DatabaseConfig{
		Path:        v.GetString("DB_PATH"),
		BusyTimeout: parseDuration(v.GetString("DB_BUSY_TIMEOUT"), 5*time.Second),
	}

	cfg.Backup = BackupConfig{Dir: v.GetString("BACKUP_DIR")}
	cfg.Export = ExportConfig{Dir: v.GetString("EXPORT_DIR")}

	cfg.Roster = RosterConfig{PageSize: v.GetInt("PAGE_SIZE")}
	if cfg.Roster.PageSize <= 0 {
		cfg.Roster.PageSize = 50
	}

	cfg.Audit = AuditConfig{ViewLimit: v.GetInt("AUDIT_VIEW_LIMIT")}
	if cfg.Audit.ViewLimit <= 0 {
		cfg.Audit.ViewLimit = 1000
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("DB_PATH", "students.db")
	v.SetDefault("DB_BUSY_TIMEOUT", "5s")

	v.SetDefault("BACKUP_DIR", ".")
	v.SetDefault("EXPORT_DIR", "./exports")

	v.SetDefault("PAGE_SIZE", 50)
	v.SetDefault("AUDIT_VIEW_LIMIT", 1000)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
