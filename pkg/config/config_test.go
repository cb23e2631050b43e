package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "/etc/haproxy/drover.cfg", cfg.HAProxy.ConfigPath)
	assert.Equal(t, "haproxy", cfg.HAProxy.Unit)
	assert.False(t, cfg.Failover.ManageService)
}

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drover.yaml")
	content := `
instance_name: lb-0
data_dir: /tmp/drover
haproxy:
  unit: haproxy@drover
gossip:
  peers: ["10.0.0.2:7479"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "lb-0", cfg.InstanceName)
	assert.Equal(t, "/tmp/drover", cfg.DataDir)
	assert.Equal(t, "haproxy@drover", cfg.HAProxy.Unit)
	assert.Equal(t, []string{"10.0.0.2:7479"}, cfg.Gossip.Peers)
	// Untouched fields keep their defaults.
	assert.Equal(t, "haproxy", cfg.HAProxy.Package)
}

func TestLoadAppliesEnvironmentOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drover.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: :8000\n"), 0o644))
	t.Setenv("DROVER_LISTEN_ADDR", ":9000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7478", cfg.ListenAddr)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty instance name", func(c *Config) { c.InstanceName = "" }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"empty topology path", func(c *Config) { c.TopologyPath = "" }},
		{"empty haproxy unit", func(c *Config) { c.HAProxy.Unit = "" }},
		{"empty keepalived output", func(c *Config) { c.Failover.OutputPath = "" }},
		{"manage service without unit", func(c *Config) {
			c.Failover.ManageService = true
			c.Failover.Unit = ""
		}},
		{"gossip port out of range", func(c *Config) { c.Gossip.BindPort = 70000 }},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			assert.Error(t, cfg.Validate())
		})
	}
}
