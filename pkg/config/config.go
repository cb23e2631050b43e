package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vrischmann/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the full agent configuration, assembled once at startup
// and passed down explicitly. Precedence: defaults, then the YAML file,
// then DROVER_* environment overrides.
type Config struct {
	// InstanceName identifies this agent; it names the VRRP instance
	// and the gossip node. Defaults to the hostname.
	InstanceName string `yaml:"instance_name" envconfig:"DROVER_INSTANCE_NAME,optional"`

	DataDir      string `yaml:"data_dir" envconfig:"DROVER_DATA_DIR,optional"`
	TopologyPath string `yaml:"topology_path" envconfig:"DROVER_TOPOLOGY_PATH,optional"`

	// ListenAddr is the observability HTTP endpoint (health, status,
	// metrics).
	ListenAddr string `yaml:"listen_addr" envconfig:"DROVER_LISTEN_ADDR,optional"`

	Log      Log        `yaml:"log"`
	HAProxy  HAProxy    `yaml:"haproxy"`
	Failover Keepalived `yaml:"keepalived"`
	Gossip   Gossip     `yaml:"gossip"`
}

// Log selects the logging level and output format.
type Log struct {
	Level string `yaml:"level" envconfig:"DROVER_LOG_LEVEL,optional"`

	// JSON switches from console output to structured JSON.
	JSON bool `yaml:"json" envconfig:"DROVER_LOG_JSON,optional"`
}

// HAProxy locates the managed load-balancer instance on the host.
type HAProxy struct {
	ConfigPath  string `yaml:"config_path" envconfig:"DROVER_HAPROXY_CONFIG_PATH,optional"`
	EnvFilePath string `yaml:"env_file_path" envconfig:"DROVER_HAPROXY_ENV_FILE_PATH,optional"`
	Unit        string `yaml:"unit" envconfig:"DROVER_HAPROXY_UNIT,optional"`
	Package     string `yaml:"package" envconfig:"DROVER_HAPROXY_PACKAGE,optional"`
}

// Keepalived locates the failover companion's configuration drop-in.
type Keepalived struct {
	OutputPath string `yaml:"output_path" envconfig:"DROVER_KEEPALIVED_OUTPUT_PATH,optional"`
	Unit       string `yaml:"unit" envconfig:"DROVER_KEEPALIVED_UNIT,optional"`

	// ManageService reloads the companion unit when the rendered
	// drop-in changes. Off by default: many deployments let the
	// keepalived charm or operator own the service.
	ManageService bool `yaml:"manage_service" envconfig:"DROVER_KEEPALIVED_MANAGE_SERVICE,optional"`
}

// Gossip configures failover-peer discovery. Zero peers leaves gossip
// disabled and the failover path permanently absent.
type Gossip struct {
	BindAddr      string        `yaml:"bind_addr" envconfig:"DROVER_GOSSIP_BIND_ADDR,optional"`
	BindPort      int           `yaml:"bind_port" envconfig:"DROVER_GOSSIP_BIND_PORT,optional"`
	Peers         []string      `yaml:"peers" envconfig:"DROVER_GOSSIP_PEERS,optional"`
	ProbeInterval time.Duration `yaml:"probe_interval" envconfig:"DROVER_GOSSIP_PROBE_INTERVAL,optional"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout" envconfig:"DROVER_GOSSIP_PROBE_TIMEOUT,optional"`
}

// Default returns the built-in configuration.
func Default() *Config {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "drover"
	}

	return &Config{
		InstanceName: hostname,
		DataDir:      "/var/lib/drover",
		TopologyPath: "/etc/drover/topology.yaml",
		ListenAddr:   ":7478",
		Log: Log{
			Level: "info",
		},
		HAProxy: HAProxy{
			ConfigPath:  "/etc/haproxy/drover.cfg",
			EnvFilePath: "/etc/default/haproxy",
			Unit:        "haproxy",
			Package:     "haproxy",
		},
		Failover: Keepalived{
			OutputPath: "/etc/keepalived/keepalived.conf",
			Unit:       "keepalived",
		},
		Gossip: Gossip{
			BindPort:      7479,
			ProbeInterval: time.Second,
			ProbeTimeout:  500 * time.Millisecond,
		},
	}
}

// Load assembles the configuration: defaults, the YAML file at path
// (optional when path is empty; required to exist otherwise), then
// environment overrides, then validation.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.InitWithOptions(cfg, envconfig.Options{AllOptional: true}); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// Validate checks the assembled configuration for operator mistakes.
func (c *Config) Validate() error {
	if c.InstanceName == "" {
		return fmt.Errorf("instance_name must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.TopologyPath == "" {
		return fmt.Errorf("topology_path must not be empty")
	}
	if c.HAProxy.ConfigPath == "" || c.HAProxy.EnvFilePath == "" {
		return fmt.Errorf("haproxy config_path and env_file_path must not be empty")
	}
	if c.HAProxy.Unit == "" || c.HAProxy.Package == "" {
		return fmt.Errorf("haproxy unit and package must not be empty")
	}
	if c.Failover.OutputPath == "" {
		return fmt.Errorf("keepalived output_path must not be empty")
	}
	if c.Failover.ManageService && c.Failover.Unit == "" {
		return fmt.Errorf("keepalived unit must be set when manage_service is on")
	}
	if c.Gossip.BindPort < 0 || c.Gossip.BindPort > 65535 {
		return fmt.Errorf("gossip bind_port %d out of range", c.Gossip.BindPort)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

func (c *Config) normalize() {
	for _, p := range []*string{
		&c.DataDir,
		&c.TopologyPath,
		&c.HAProxy.ConfigPath,
		&c.HAProxy.EnvFilePath,
		&c.Failover.OutputPath,
	} {
		if abs, err := filepath.Abs(*p); err == nil {
			*p = abs
		}
	}
}
