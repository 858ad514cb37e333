package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/zurustar/confsync/internal/address"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "CONFSYNC_"

// Manager implements the ConfigManager interface
type Manager struct {
	validate *validator.Validate
	envFile  string
}

// NewManager creates a new configuration manager. Overrides are read
// from a ".env" file in the working directory when present.
func NewManager() *Manager {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("sipuri", func(fl validator.FieldLevel) bool {
		_, err := address.Parse(fl.Field().String())
		return err == nil
	})
	return &Manager{validate: v, envFile: ".env"}
}

// SetEnvFile changes the dotenv file loaded before overrides apply.
// Empty disables it.
func (m *Manager) SetEnvFile(path string) {
	m.envFile = path
}

// Load reads and parses the configuration file on top of the defaults
func (m *Manager) Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	config := GetDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if err := m.applyEnv(config); err != nil {
		return nil, err
	}

	if err := m.Validate(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// applyEnv loads the dotenv file then applies CONFSYNC_* variables. Real
// environment variables win over the file.
func (m *Manager) applyEnv(config *Config) error {
	if m.envFile != "" {
		if err := godotenv.Load(m.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", m.envFile, err)
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "LOG_LEVEL"); ok {
		config.Logging.Level = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv(EnvPrefix + "LOG_FILE"); ok {
		config.Logging.File = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "DATABASE_PATH"); ok {
		config.Database.Path = v
	}
	if v, ok := os.LookupEnv(EnvPrefix + "SIP_HOST"); ok {
		config.Server.Host = v
	}
	for name, target := range map[string]*int{
		"SIP_PORT": &config.Server.Port,
		"WEB_PORT": &config.WebAdmin.Port,
	} {
		v, ok := os.LookupEnv(EnvPrefix + name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %q", EnvPrefix, name, v)
		}
		*target = n
	}
	return nil
}

// Validate checks struct constraints then the links between sections
func (m *Manager) Validate(config *Config) error {
	if err := m.validate.Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return fmt.Errorf("invalid %s: %q fails %s", e.Namespace(), fmt.Sprint(e.Value()), e.Tag())
		}
		return err
	}

	if config.WebAdmin.Enabled && config.WebAdmin.Port > 0 && config.WebAdmin.Port == config.Server.Port && config.Server.Transport == "tcp" {
		return fmt.Errorf("web admin port %d conflicts with SIP server port", config.WebAdmin.Port)
	}

	keyed := lo.Filter(config.Accounts, func(a AccountConfig, _ int) bool { return a.Idkey != "" })
	if dups := lo.FindDuplicatesBy(keyed, func(a AccountConfig) string { return a.Idkey }); len(dups) > 0 {
		return fmt.Errorf("duplicate account idkey: %s", dups[0].Idkey)
	}
	byKey := lo.KeyBy(keyed, func(a AccountConfig) string { return a.Idkey })

	for _, acc := range config.Accounts {
		if acc.DependsOn == "" {
			continue
		}
		if acc.DependsOn == acc.Idkey {
			return fmt.Errorf("account %s depends on itself", acc.Idkey)
		}
		master, ok := byKey[acc.DependsOn]
		if !ok {
			return fmt.Errorf("account %s depends on unknown idkey %s", acc.Identity, acc.DependsOn)
		}
		if master.DependsOn != "" {
			return fmt.Errorf("account %s depends on %s which is itself a dependent", acc.Identity, acc.DependsOn)
		}
	}

	addrs := lo.Map(config.Conferences.Local, func(c LocalConferenceConfig, _ int) string {
		return address.MustParse(c.Address).Key()
	})
	if dups := lo.FindDuplicates(addrs); len(dups) > 0 {
		return fmt.Errorf("duplicate local conference: %s", dups[0])
	}
	for _, remote := range config.Conferences.Remote {
		if remote.Account != "" {
			if _, ok := byKey[remote.Account]; !ok {
				return fmt.Errorf("remote conference %s uses unknown account %s", remote.Address, remote.Account)
			}
		}
	}

	return nil
}

// GetDefaultConfig returns a configuration with default values
func GetDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             5060,
			Transport:        "udp",
			UserAgent:        "confsync",
			SubscribeExpires: 3600,
			NetworkReachable: true,
		},
		Database: DatabaseConfig{
			Path:         "./confsync.db",
			ReplayWindow: 256,
		},
		WebAdmin: WebAdminConfig{
			Port:    8080,
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tick: TickConfig{
			Spec: "@every 1s",
		},
	}
}
