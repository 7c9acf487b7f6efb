package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host                string   `mapstructure:"host"`
	Port                int      `mapstructure:"port"`
	Mode                string   `mapstructure:"mode"`
	BaseURL             string   `mapstructure:"base_url"`
	AllowedOrigins      []string `mapstructure:"allowed_origins"`
	FrontendCallbackURL string   `mapstructure:"frontend_callback_url"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	AccessExpMinutes int    `mapstructure:"access_exp_minutes"`
}

type AuthConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ProviderCredentials holds the OAuth client credentials for a single wearable
// platform. Empty ClientID means the provider is not configured, which is a
// valid state rather than a startup error.
type ProviderCredentials struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

func (p *ProviderCredentials) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

type WearablesConfig struct {
	Fitbit ProviderCredentials `mapstructure:"fitbit"`
	Polar  ProviderCredentials `mapstructure:"polar"`
	Garmin ProviderCredentials `mapstructure:"garmin"`
	Oura   ProviderCredentials `mapstructure:"oura"`
	Whoop  ProviderCredentials `mapstructure:"whoop"`

	// SyncDays is how many recent days each sync fetches. Defaults to 2
	// (today and yesterday) to tolerate providers that publish same-day
	// data late.
	SyncDays int `mapstructure:"sync_days"`

	// StateTTLSeconds is the lifetime of an OAuth state entry.
	StateTTLSeconds int `mapstructure:"state_ttl_seconds"`
}

func (w *WearablesConfig) StateTTL() time.Duration {
	return time.Duration(w.StateTTLSeconds) * time.Second
}

type SchedulerConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	IntervalMinutes  int  `mapstructure:"interval_minutes"`
	MaxConcurrency   int  `mapstructure:"max_concurrency"`
	RunOnStartup     bool `mapstructure:"run_on_startup"`
	TimeoutPerUserMS int  `mapstructure:"timeout_per_user_ms"`
}
