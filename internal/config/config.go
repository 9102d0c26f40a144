// Package config loads and validates the probe's configuration from flags,
// environment variables, and an optional config file, grounded on
// pyospf/config.py's oslo.config option groups and the viper loader pattern
// in marmos91-dittofs/pkg/config/config.go.
package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Probe holds the OSPFv2 probe's own identity and the single interface it
// listens on, grounded on pyospf/config.py's probe_opts.
type Probe struct {
	RouterID           string        `mapstructure:"router_id"`
	AreaID             string        `mapstructure:"area"`
	InterfaceName      string        `mapstructure:"interface_name"`
	NetworkMask        string        `mapstructure:"network_mask"`
	HelloInterval      time.Duration `mapstructure:"hello_interval"`
	RouterDeadInterval time.Duration `mapstructure:"router_dead_interval"`
	MTU                int           `mapstructure:"mtu"`
	StubArea           bool          `mapstructure:"stub_area"`
	NSSAArea           bool          `mapstructure:"nssa_area"`
	OpaqueCapable      bool          `mapstructure:"opaque_capable"`
	PacketDisplay      bool          `mapstructure:"packet_display"`
}

// API holds the probe's read-only HTTP query surface configuration,
// grounded on pyospf/config.py's api_opts.
type API struct {
	BindHost string `mapstructure:"bind_host"`
	BindPort int    `mapstructure:"bind_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Logging controls the zerolog setup in internal/xlog.
type Logging struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Config is the probe's complete, validated configuration.
type Config struct {
	Probe   Probe   `mapstructure:"probe"`
	API     API     `mapstructure:"api"`
	Logging Logging `mapstructure:"logging"`
}

// Defaults mirror pyospf/config.py's cfg.Opt defaults.
const (
	defaultHelloInterval      = 10 * time.Second
	defaultRouterDeadInterval = 40 * time.Second
	defaultMTU                = 1500
	defaultAreaID             = "0.0.0.0"
	defaultAPIBindHost        = "127.0.0.1"
	defaultAPIBindPort        = 7002
	defaultLogLevel           = "info"
)

// Load reads configuration from defaults, configPath (if non-empty), and
// environment variables prefixed OSPFPROBE_, in that order of increasing
// precedence, grounded on marmos91-dittofs/pkg/config/config.go's Load.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("OSPFPROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("probe.hello_interval", defaultHelloInterval)
	v.SetDefault("probe.router_dead_interval", defaultRouterDeadInterval)
	v.SetDefault("probe.mtu", defaultMTU)
	v.SetDefault("probe.area", defaultAreaID)
	v.SetDefault("api.bind_host", defaultAPIBindHost)
	v.SetDefault("api.bind_port", defaultAPIBindPort)
	v.SetDefault("logging.level", defaultLogLevel)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read %q: %w", configPath, err)
		}
	}

	cfg := &Config{
		Probe: Probe{
			RouterID:           v.GetString("probe.router_id"),
			AreaID:             v.GetString("probe.area"),
			InterfaceName:      v.GetString("probe.interface_name"),
			NetworkMask:        v.GetString("probe.network_mask"),
			HelloInterval:      v.GetDuration("probe.hello_interval"),
			RouterDeadInterval: v.GetDuration("probe.router_dead_interval"),
			MTU:                v.GetInt("probe.mtu"),
			StubArea:           v.GetBool("probe.stub_area"),
			NSSAArea:           v.GetBool("probe.nssa_area"),
			OpaqueCapable:      v.GetBool("probe.opaque_capable"),
			PacketDisplay:      v.GetBool("probe.packet_display"),
		},
		API: API{
			BindHost: v.GetString("api.bind_host"),
			BindPort: v.GetInt("api.bind_port"),
			Username: v.GetString("api.username"),
			Password: v.GetString("api.password"),
		},
		Logging: Logging{
			Level: v.GetString("logging.level"),
			JSON:  v.GetBool("logging.json"),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields Load cannot fill in from a sensible default,
// grounded on the bounds pyospf/core/interfaceStateMachine.py assumes its
// caller already enforced (a positive hello interval strictly less than the
// dead interval, RFC 2328 section 9.5).
func Validate(cfg *Config) error {
	if cfg.Probe.InterfaceName == "" {
		return fmt.Errorf("probe.interface_name is required")
	}
	if net.ParseIP(cfg.Probe.RouterID) == nil {
		return fmt.Errorf("probe.router_id must be a dotted-decimal IPv4 address, got %q", cfg.Probe.RouterID)
	}
	if net.ParseIP(cfg.Probe.AreaID) == nil {
		return fmt.Errorf("probe.area must be a dotted-decimal area ID, got %q", cfg.Probe.AreaID)
	}
	if cfg.Probe.HelloInterval <= 0 {
		return fmt.Errorf("probe.hello_interval must be positive")
	}
	if cfg.Probe.RouterDeadInterval <= cfg.Probe.HelloInterval {
		return fmt.Errorf("probe.router_dead_interval must be greater than probe.hello_interval")
	}
	if cfg.API.BindPort <= 0 || cfg.API.BindPort > 65535 {
		return fmt.Errorf("api.bind_port must be between 1 and 65535, got %d", cfg.API.BindPort)
	}
	return nil
}
