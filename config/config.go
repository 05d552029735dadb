// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"github.com/stratastor/logger"
	"github.com/stratastor/shareaudit/internal/constants"
	"gopkg.in/yaml.v3"
)

var (
	instance   *Config
	once       sync.Once
	configPath string // Tracks where the config was loaded from
)

type Config struct {
	Server struct {
		Port      int    `mapstructure:"port"`
		LogLevel  string `mapstructure:"logLevel"`
		Daemonize bool   `mapstructure:"daemonize"`
	} `mapstructure:"server"`

	Logs struct {
		Path      string `mapstructure:"path"`
		Retention string `mapstructure:"retention"`
		Output    string `mapstructure:"output"` // stdout or file
	} `mapstructure:"logs"`

	Logger struct {
		LogLevel     string `mapstructure:"logLevel"`
		EnableSentry bool   `mapstructure:"enableSentry"`
		SentryDSN    string `mapstructure:"sentryDSN"`
	} `mapstructure:"logger"`

	// Directory configures the LDAP source used to enumerate domain
	// computer objects ahead of a scan.
	Directory struct {
		LDAPServer string `mapstructure:"ldapServer"`
		LDAPDomain string `mapstructure:"ldapDomain"`
		LDAPPort   int    `mapstructure:"ldapPort"`
		BaseDN     string `mapstructure:"baseDN"` // derived from LDAPDomain unless set
		BindUser   string `mapstructure:"bindUser"`
		BindPass   string `mapstructure:"bindPass"`
		UseSimpleBind bool `mapstructure:"useSimpleBind"` // NTLM by default
		PageSize   uint32 `mapstructure:"pageSize"`
	} `mapstructure:"directory"`

	// Scan holds the tunables that bound a share-scanning run.
	Scan struct {
		DefaultThreads    int           `mapstructure:"defaultThreads"`
		BatchSize         int           `mapstructure:"batchSize"`
		StorageBatch      int           `mapstructure:"storageBatch"`
		MaxScanDepth      int           `mapstructure:"maxScanDepth"`
		ScanTimeout       time.Duration `mapstructure:"scanTimeout"`
		HostScanTimeout   time.Duration `mapstructure:"hostScanTimeout"`
		SearchTimeout     time.Duration `mapstructure:"searchTimeout"`
		MaxComputers      int           `mapstructure:"maxComputers"`
		ScanForSensitive  bool          `mapstructure:"scanForSensitive"`
		ExcludedShares    []string      `mapstructure:"excludedShares"`
		CancelGracePeriod time.Duration `mapstructure:"cancelGracePeriod"`
	} `mapstructure:"scan"`

	// DB configures the PostgreSQL-backed result store.
	DB struct {
		Host           string `mapstructure:"host"`
		Port           int    `mapstructure:"port"`
		Name           string `mapstructure:"name"`
		User           string `mapstructure:"user"`
		Password       string `mapstructure:"password"`
		MinConnections int    `mapstructure:"minConnections"`
		MaxConnections int    `mapstructure:"maxConnections"`
	} `mapstructure:"db"`

	Scheduler struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"scheduler"`

	// Webhook configures an optional HTTP callback fired when a scan
	// session finishes, used to integrate with external SIEM/ticketing
	// collaborators without coupling the engine to any one of them.
	Webhook struct {
		URL     string        `mapstructure:"url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"webhook"`

	Development struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"development"`

	Environment string `mapstructure:"environment"`
}

// LoadConfig loads the configuration with precedence rules.
func LoadConfig(configFilePath string) *Config {
	once.Do(func() {
		// Setup basic logger for initialization
		logConfig := logger.Config{
			LogLevel:     "info",
			EnableSentry: false,
			SentryDSN:    "",
		}
		l, err := logger.NewTag(logConfig, "config")
		if err != nil {
			fmt.Printf("Failed to create logger: %v\n", err)
			os.Exit(1)
		}

		// Reset viper to avoid any potential carryover
		viper.Reset()
		viper.SetConfigType("yaml")

		// Determine which config file to use with clear priorities
		systemConfigPath := filepath.Join(GetConfigDir(), constants.ConfigFileName)

		if configFilePath != "" {
			// 1. Priority: Explicit path from command line
			configPath = configFilePath
		} else if envPath := os.Getenv("SCANNER_CONFIG"); envPath != "" {
			// 2. Priority: Environment variable
			configPath = envPath
		} else {
			// 3. Priority: Always default to system-wide config
			configPath = systemConfigPath
		}

		l.Info("Using config file", "path", configPath)

		// Convert to absolute path if possible for consistency
		absPath, err := filepath.Abs(configPath)
		if err == nil {
			configPath = absPath
		}

		// Set config file path for viper
		viper.SetConfigFile(configPath)

		setDefaults()

		// Bind environment variables
		viper.AutomaticEnv()
		viper.SetEnvPrefix(constants.EnvPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

		// Try to read the config file
		err = viper.ReadInConfig()

		// Handle missing or invalid config
		if err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				// File doesn't exist, create a default one
				l.Info(
					"Config file not found, creating default at system path",
					"path",
					systemConfigPath,
				)

				// Ensure parent directory exists
				if err := os.MkdirAll(GetConfigDir(), 0755); err != nil {
					l.Error("Failed to create config directory", "err", err)
				}

				// Use defaults for now
				var cfg Config
				if err := viper.Unmarshal(&cfg); err != nil {
					l.Error("Failed to unmarshal default configuration", "err", err)
				}

				instance = &cfg
				configPath = systemConfigPath

				// Save default config to the system path
				if err := SaveConfig(systemConfigPath); err != nil {
					l.Error("Failed to save default configuration", "err", err)
				}
			} else {
				// Some other error (parse error, etc.)
				l.Error("Error reading config file", "err", err)

				// Still use defaults
				var cfg Config
				if err := viper.Unmarshal(&cfg); err != nil {
					l.Error("Failed to unmarshal default configuration", "err", err)
				}

				instance = &cfg
			}
		} else {
			// Successfully loaded config
			l.Info("Config file loaded successfully", "path", viper.ConfigFileUsed())
			configPath = viper.ConfigFileUsed()

			var cfg Config
			if err := viper.Unmarshal(&cfg); err != nil {
				l.Error("Failed to parse configuration", "err", err)
			} else {
				instance = &cfg
			}
		}

		if instance.Directory.BaseDN == "" && instance.Directory.LDAPDomain != "" {
			instance.Directory.BaseDN = domainToBaseDN(instance.Directory.LDAPDomain)
		}

		if instance.Directory.BindPass == "" {
			l.Warn("directory bind password is empty, directory operations may fail")
		}

		// Log config values for debugging (redact sensitive data)
		debugCfg := *instance
		debugCfg.Directory.BindPass = "[REDACTED]"
		debugCfg.DB.Password = "[REDACTED]"
		l.Debug("Loaded configuration", "config", fmt.Sprintf("%+v", debugCfg))
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("environment", "dev")
	viper.SetDefault("server.port", 8420)
	viper.SetDefault("server.logLevel", "info")
	viper.SetDefault("server.daemonize", false)
	viper.SetDefault("logs.path", "/var/log/shareaudit/shareaudit.log")
	viper.SetDefault("logs.retention", "7d")
	viper.SetDefault("logs.output", "stdout")
	viper.SetDefault("logger.logLevel", "info")
	viper.SetDefault("logger.enableSentry", false)
	viper.SetDefault("logger.sentryDSN", "")

	viper.SetDefault("directory.ldapServer", "")
	viper.SetDefault("directory.ldapDomain", "")
	viper.SetDefault("directory.ldapPort", 389)
	viper.SetDefault("directory.baseDN", "")
	viper.SetDefault("directory.bindUser", "")
	viper.SetDefault("directory.bindPass", "")
	viper.SetDefault("directory.useSimpleBind", false)
	viper.SetDefault("directory.pageSize", 5000)

	viper.SetDefault("scan.defaultThreads", 10)
	viper.SetDefault("scan.batchSize", 1000)
	viper.SetDefault("scan.storageBatch", 1000)
	viper.SetDefault("scan.maxScanDepth", 5)
	viper.SetDefault("scan.scanTimeout", "30s")
	viper.SetDefault("scan.hostScanTimeout", "300s")
	viper.SetDefault("scan.searchTimeout", "300s")
	viper.SetDefault("scan.maxComputers", 800000)
	viper.SetDefault("scan.scanForSensitive", true)
	viper.SetDefault("scan.excludedShares", constants.DefaultExcludedShares)
	viper.SetDefault("scan.cancelGracePeriod", "10s")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("db.name", "shareaudit")
	viper.SetDefault("db.user", "shareaudit")
	viper.SetDefault("db.password", "")
	viper.SetDefault("db.minConnections", 10)
	viper.SetDefault("db.maxConnections", 100)

	viper.SetDefault("scheduler.enabled", false)
	viper.SetDefault("development.enabled", false)

	viper.SetDefault("webhook.url", "")
	viper.SetDefault("webhook.timeout", "10s")
}

func domainToBaseDN(domain string) string {
	parts := strings.Split(domain, ".")
	dcs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		dcs = append(dcs, "DC="+p)
	}
	return strings.Join(dcs, ",")
}

// SaveConfig persists the current configuration to a specified path.
func SaveConfig(path string) error {
	if path == "" {
		// Determine default save location based on user privileges
		if os.Geteuid() == 0 {
			if err := os.MkdirAll(GetConfigDir(), 0755); err != nil {
				return fmt.Errorf("failed to create system config directory: %w", err)
			}
			path = filepath.Join(GetConfigDir(), constants.ConfigFileName)
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}
			userConfigDir := filepath.Join(home, ".shareaudit")
			if err := os.MkdirAll(userConfigDir, 0755); err != nil {
				return fmt.Errorf("failed to create user config directory: %w", err)
			}
			path = filepath.Join(userConfigDir, constants.ConfigFileName)
		}
	}

	// Create parent directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Save configuration
	configYAML, err := yaml.Marshal(instance)
	if err != nil {
		return fmt.Errorf("failed to serialize configuration: %w", err)
	}

	if err := os.WriteFile(path, configYAML, 0644); err != nil {
		return fmt.Errorf("failed to write configuration to file: %w", err)
	}

	// Update the tracked config path
	configPath = path

	return nil
}

// GetLoadedConfigPath returns the path of the currently loaded configuration file.
func GetLoadedConfigPath() string {
	return configPath
}

// GetConfig returns the current configuration instance.
func GetConfig() *Config {
	if instance == nil {
		return LoadConfig("")
	}
	return instance
}

func NewLoggerConfig(cfg *Config) logger.Config {
	if cfg == nil {
		return logger.Config{
			LogLevel:     "info",
			EnableSentry: false,
			SentryDSN:    "",
		}
	}

	return logger.Config{
		LogLevel:     cfg.Logger.LogLevel,
		EnableSentry: cfg.Logger.EnableSentry,
		SentryDSN:    cfg.Logger.SentryDSN,
	}
}
