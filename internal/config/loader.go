package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Logger       LoggerConfig       `mapstructure:"logger"`
	Platform     PlatformConfig     `mapstructure:"platform"`
	Retry        RetryConfig        `mapstructure:"retry"`
	Signing      SigningConfig      `mapstructure:"signing"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Certificates CertificatesConfig `mapstructure:"certificates"`
	Dispenser    DispenserConfig    `mapstructure:"dispenser"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type PlatformConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	Multiplier  int           `mapstructure:"multiplier"`
}

type SigningConfig struct {
	ToolPath string        `mapstructure:"tool_path"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	// BaseDir overrides the per-user application directory. Empty means
	// <user config dir>/znakly.
	BaseDir string `mapstructure:"base_dir"`
}

type CertificatesConfig struct {
	Dir string `mapstructure:"dir"`
}

type DispenserConfig struct {
	ProductGroups       []int         `mapstructure:"product_groups"`
	ViolationCategories []int         `mapstructure:"violation_categories"`
	ViolationKinds      []int         `mapstructure:"violation_kinds"`
	ReportName          string        `mapstructure:"report_name"`
	Format              string        `mapstructure:"format"`
	Periodicity         string        `mapstructure:"periodicity"`
	PollInterval        time.Duration `mapstructure:"poll_interval"`
	PollInitialDelay    time.Duration `mapstructure:"poll_initial_delay"`
	RetentionDays       int           `mapstructure:"retention_days"`
}

func Load(path string) (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix("ZNAKLY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Platform.BaseURL == "" {
		return fmt.Errorf("platform.base_url is required")
	}
	if len(c.Dispenser.ProductGroups) == 0 {
		return fmt.Errorf("dispenser.product_groups must not be empty")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8097)
	viper.SetDefault("server.read_timeout", 15*time.Second)
	viper.SetDefault("server.write_timeout", 15*time.Second)
	viper.SetDefault("server.idle_timeout", 60*time.Second)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "console")

	viper.SetDefault("platform.base_url", "https://markirovka.crpt.ru/api/v3/true-api")
	viper.SetDefault("platform.request_timeout", 30*time.Second)
	viper.SetDefault("platform.user_agent", "znakly-agent/"+Version)

	viper.SetDefault("retry.max_attempts", 4)
	viper.SetDefault("retry.base_delay", time.Second)
	viper.SetDefault("retry.multiplier", 2)

	viper.SetDefault("signing.timeout", 2*time.Minute)

	viper.SetDefault("dispenser.product_groups", []int{12, 16, 20})
	viper.SetDefault("dispenser.violation_categories", []int{1, 2, 4, 5, 6, 7, 8, 9, 10})
	viper.SetDefault("dispenser.violation_kinds", []int{
		1, 2, 5, 12, 13, 3, 24, 25, 6, 7, 10, 11, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 26,
	})
	viper.SetDefault("dispenser.report_name", "VIOLATIONS")
	viper.SetDefault("dispenser.format", "CSV")
	viper.SetDefault("dispenser.periodicity", "SINGLE")
	viper.SetDefault("dispenser.poll_interval", 30*time.Second)
	viper.SetDefault("dispenser.poll_initial_delay", 2*time.Second)
	viper.SetDefault("dispenser.retention_days", 7)
}
