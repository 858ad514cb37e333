package config

// Config represents the daemon configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	WebAdmin    WebAdminConfig    `yaml:"web_admin"`
	Logging     LoggingConfig     `yaml:"logging"`
	Tick        TickConfig        `yaml:"tick"`
	Accounts    []AccountConfig   `yaml:"accounts" validate:"dive"`
	Conferences ConferencesConfig `yaml:"conferences"`
}

// ServerConfig configures the SIP side
type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port" validate:"gte=0,lte=65535"`
	Transport  string `yaml:"transport" validate:"oneof=udp tcp"`
	PublicHost string `yaml:"public_host"`
	UserAgent  string `yaml:"user_agent"`
	// LocalURI is the From of outgoing conference subscriptions
	LocalURI         string `yaml:"local_uri" validate:"omitempty,sipuri"`
	SubscribeExpires int    `yaml:"subscribe_expires" validate:"gte=0"`

	NetworkReachable          bool `yaml:"network_reachable"`
	RegisterOnlyWhenNetworkUp bool `yaml:"register_only_when_network_up"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
	// ReplayWindow is how many partial notifies each conference keeps
	ReplayWindow int `yaml:"replay_window" validate:"gte=0"`
}

type WebAdminConfig struct {
	Port    int  `yaml:"port" validate:"gte=0,lte=65535"`
	Enabled bool `yaml:"enabled"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	File   string `yaml:"file"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

// TickConfig schedules the periodic registration iterate
type TickConfig struct {
	Spec string `yaml:"spec" validate:"required"`
}

// AccountConfig is one proxy account. Keys follow the persisted
// proxy section names.
type AccountConfig struct {
	Idkey             string   `yaml:"idkey"`
	Proxy             string   `yaml:"reg_proxy" validate:"required"`
	Routes            []string `yaml:"reg_route" validate:"dive,sipuri"`
	Identity          string   `yaml:"reg_identity" validate:"required,sipuri"`
	Username          string   `yaml:"reg_username"`
	Password          string   `yaml:"reg_password" validate:"required_with=Username"`
	Realm             string   `yaml:"reg_realm"`
	Expires           *int     `yaml:"reg_expires"`
	SendRegister      *bool    `yaml:"reg_sendregister"`
	DependsOn         string   `yaml:"depends_on"`
	DependentDisabled bool     `yaml:"reg_dependent_disabled"`
	DialPrefix        string   `yaml:"dial_prefix" validate:"omitempty,numeric"`
	DialEscapePlus    bool     `yaml:"dial_escape_plus"`
	Privacy           []string `yaml:"privacy" validate:"dive,oneof=none user header session id critical"`
	Publish           bool     `yaml:"publish"`
	PublishExpires    *int     `yaml:"publish_expires"`
}

// RegisterExpires returns reg_expires or the default lifetime
func (a AccountConfig) RegisterExpires() int {
	if a.Expires == nil {
		return 3600
	}
	return *a.Expires
}

// RegisterEnabled returns reg_sendregister, true when absent
func (a AccountConfig) RegisterEnabled() bool {
	return a.SendRegister == nil || *a.SendRegister
}

// PublishLifetime returns publish_expires, -1 when absent
func (a AccountConfig) PublishLifetime() int {
	if a.PublishExpires == nil {
		return -1
	}
	return *a.PublishExpires
}

type ConferencesConfig struct {
	// Local conferences are hosted here as focus
	Local []LocalConferenceConfig `yaml:"local" validate:"dive"`
	// Remote conferences are followed through a subscription
	Remote []RemoteConferenceConfig `yaml:"remote" validate:"dive"`
}

type LocalConferenceConfig struct {
	Address string `yaml:"address" validate:"required,sipuri"`
	Subject string `yaml:"subject"`
}

type RemoteConferenceConfig struct {
	Address string `yaml:"address" validate:"required,sipuri"`
	// Account is the idkey that must be registered before subscribing
	Account string `yaml:"account"`
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	Load(filename string) (*Config, error)
	Validate(config *Config) error
}
