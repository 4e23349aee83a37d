package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	// Client selects which entry of Clients the application drives.
	Client  string                  `yaml:"client" mapstructure:"client"`
	Clients map[string]ClientConfig `yaml:"clients" mapstructure:"clients"`

	Label      string `yaml:"label" mapstructure:"label"`
	AnimeLabel string `yaml:"animeLabel" mapstructure:"animeLabel"`
	SavePath   string `yaml:"savePath,omitempty" mapstructure:"savePath"`

	HistoryDB string `yaml:"historyDB" mapstructure:"historyDB"`

	Providers []Provider `yaml:"providers" mapstructure:"providers"`

	// Interval is the sweep interval in minutes for the run command.
	Interval int `yaml:"interval" mapstructure:"interval"`
}

type ClientConfig struct {
	URL        string `yaml:"url,omitempty" mapstructure:"url"`
	Host       string `yaml:"host,omitempty" mapstructure:"host"`
	Port       int    `yaml:"port,omitempty" mapstructure:"port"`
	Username   string `yaml:"username,omitempty" mapstructure:"username"`
	Password   string `yaml:"password,omitempty" mapstructure:"password"`
	BasicUser  string `yaml:"basicUser,omitempty" mapstructure:"basicUser"`
	BasicPass  string `yaml:"basicPass,omitempty" mapstructure:"basicPass"`
	AuthType   string `yaml:"authType,omitempty" mapstructure:"authType"`
	VerifyCert bool   `yaml:"verifyCert" mapstructure:"verifyCert"`
	WatchDir   string `yaml:"watchDir,omitempty" mapstructure:"watchDir"`
}

type Provider struct {
	Name     string `yaml:"name" mapstructure:"name"`
	Type     string `yaml:"type" mapstructure:"type"`
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Priority int    `yaml:"priority" mapstructure:"priority"`
	// Ratio is the seed ratio cutoff for removal. Nil (or -1) means torrents
	// from this provider are never removed based on ratio.
	Ratio *float64 `yaml:"ratio,omitempty" mapstructure:"ratio"`
}

// ActiveClient returns the connection settings for the configured client key.
func (c *Config) ActiveClient() (ClientConfig, bool) {
	cc, ok := c.Clients[c.Client]
	return cc, ok
}

// Load reads and parses the config file at path. Values can be overridden
// through SEEDSWEEP_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("SEEDSWEEP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}
