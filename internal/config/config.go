package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/netinfo-bridge/netinfo/internal/host"
	"github.com/netinfo-bridge/netinfo/internal/netinfo"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Observer   ObserverConfig   `yaml:"observer"`
	Interfaces InterfacesConfig `yaml:"interfaces"`
	Broadcast  BroadcastConfig  `yaml:"broadcast"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AuthToken      string   `yaml:"auth_token"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type ObserverConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	// Netlink enables kernel change events in addition to polling.
	Netlink      bool `yaml:"netlink"`
	QueueSize    int  `yaml:"queue_size"`
	AutoRegister bool `yaml:"auto_register"`
}

type InterfacesConfig struct {
	RouteFile string `yaml:"route_file"`
	// Prefixes maps a coarse type (wifi, mobile, ethernet, ...) to
	// interface name prefixes. Entries replace the built-in list for that
	// type.
	Prefixes map[string][]string `yaml:"prefixes"`
	// CellularRadio maps a cellular interface to its radio technology,
	// e.g. wwan0: LTE.
	CellularRadio map[string]string `yaml:"cellular_radio"`
}

type BroadcastConfig struct {
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
	ClientBuffer     int           `yaml:"client_buffer"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "127.0.0.1",
		},
		Observer: ObserverConfig{
			PollInterval: 2 * time.Second,
			Netlink:      true,
			QueueSize:    host.DefaultQueueSize,
			AutoRegister: true,
		},
		Interfaces: InterfacesConfig{
			RouteFile: host.DefaultRouteFile,
		},
		Broadcast: BroadcastConfig{
			SnapshotInterval: 30 * time.Second,
			ClientBuffer:     64,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the config at path, applying defaults for unset fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultConfig(), nil
	}
	return cfg, err
}

var knownCoarse = map[string]bool{
	string(netinfo.CoarseWifi):      true,
	string(netinfo.CoarseMobile):    true,
	string(netinfo.CoarseMobileDUN): true,
	string(netinfo.CoarseBluetooth): true,
	string(netinfo.CoarseEthernet):  true,
	string(netinfo.CoarseWimax):     true,
	string(netinfo.CoarseVPN):       true,
}

func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Observer.PollInterval <= 0 {
		return fmt.Errorf("observer.poll_interval must be positive, got %v", c.Observer.PollInterval)
	}
	if c.Observer.QueueSize <= 0 {
		return fmt.Errorf("observer.queue_size must be positive, got %d", c.Observer.QueueSize)
	}
	if c.Broadcast.SnapshotInterval <= 0 {
		return fmt.Errorf("broadcast.snapshot_interval must be positive, got %v", c.Broadcast.SnapshotInterval)
	}
	if c.Broadcast.ClientBuffer <= 0 {
		return fmt.Errorf("broadcast.client_buffer must be positive, got %d", c.Broadcast.ClientBuffer)
	}
	for coarse := range c.Interfaces.Prefixes {
		if !knownCoarse[coarse] {
			return fmt.Errorf("interfaces.prefixes: unknown network type %q", coarse)
		}
	}
	return nil
}

// Rules builds interface classification rules: the built-in prefixes with
// configured entries replacing whole types.
func (c *Config) Rules() host.Rules {
	rules := host.DefaultRules()
	for coarse, prefixes := range c.Interfaces.Prefixes {
		rules.Prefixes[netinfo.CoarseType(coarse)] = append([]string(nil), prefixes...)
	}
	for name, radio := range c.Interfaces.CellularRadio {
		rules.Radios[name] = radio
	}
	return rules
}
