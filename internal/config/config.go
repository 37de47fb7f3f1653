package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/consolidador-t25/tarifas-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Remote     RemoteConfig     `yaml:"remote" mapstructure:"remote"`
	Processing ProcessingConfig `yaml:"processing" mapstructure:"processing"`
	Store      store.Config     `yaml:"store" mapstructure:"store"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// RemoteConfig configures the FTP source of contract folders.
type RemoteConfig struct {
	Host         string  `yaml:"host" mapstructure:"host"`
	Port         int     `yaml:"port" mapstructure:"port"`
	Username     string  `yaml:"username" mapstructure:"username"`
	Password     string  `yaml:"password" mapstructure:"password"`
	MainFolder   string  `yaml:"main_folder" mapstructure:"main_folder"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries   int     `yaml:"max_retries" mapstructure:"max_retries"`
	OpsPerSecond float64 `yaml:"ops_per_second" mapstructure:"ops_per_second"`
}

// ProcessingConfig configures extraction and consolidation behavior.
type ProcessingConfig struct {
	FileTimeoutSecs int    `yaml:"file_timeout_secs" mapstructure:"file_timeout_secs"`
	MaxRows         int    `yaml:"max_rows" mapstructure:"max_rows"`
	MaxSites        int    `yaml:"max_sites" mapstructure:"max_sites"`
	Workers         int    `yaml:"workers" mapstructure:"workers"`
	OutputDir       string `yaml:"output_dir" mapstructure:"output_dir"`
	DownloadDir     string `yaml:"download_dir" mapstructure:"download_dir"`
	RefdataOverlay  string `yaml:"refdata_overlay" mapstructure:"refdata_overlay"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CONSOLIDADOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("remote.port", 21)
	v.SetDefault("remote.main_folder", "CONTRATACION")
	v.SetDefault("remote.timeout_secs", 30)
	v.SetDefault("remote.max_retries", 3)
	v.SetDefault("remote.ops_per_second", 10)
	v.SetDefault("processing.file_timeout_secs", 90)
	v.SetDefault("processing.max_rows", 20000)
	v.SetDefault("processing.max_sites", 100)
	v.SetDefault("processing.workers", 1)
	v.SetDefault("processing.output_dir", "salida")
	v.SetDefault("processing.download_dir", "descargas")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "consolidador.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
