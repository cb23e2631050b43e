package topology

import (
	"bytes"
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/drover/pkg/types"
)

// Load reads and validates the topology document at path. A missing
// file is not an error: it decodes to zero pools, which is a valid
// desired state (the load balancer renders an empty configuration).
func Load(path string) (*types.Topology, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &types.Topology{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read topology %s: %w", path, err)
	}

	topology := &types.Topology{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(topology); err != nil {
		// An empty document decodes to io.EOF with yaml.v3; treat it
		// like an absent file.
		if len(bytes.TrimSpace(data)) == 0 {
			return &types.Topology{}, nil
		}
		return nil, fmt.Errorf("failed to parse topology %s: %w", path, err)
	}

	if err := Validate(topology); err != nil {
		return nil, err
	}
	return topology, nil
}

// Validate checks the operator-supplied document. Failures here are
// configuration mistakes the operator can correct, surfaced as a
// blocked status rather than a crash.
func Validate(t *types.Topology) error {
	names := make(map[string]bool, len(t.Pools))
	ports := make(map[int]string, len(t.Pools))

	for _, pool := range t.Pools {
		listener := pool.Listener
		if listener.Name == "" {
			return fmt.Errorf("pool with port %d has no listener name", listener.Port)
		}
		if names[listener.Name] {
			return fmt.Errorf("duplicate listener name %q", listener.Name)
		}
		names[listener.Name] = true

		if listener.Port < 1 || listener.Port > 65535 {
			return fmt.Errorf("listener %q port %d out of range", listener.Name, listener.Port)
		}
		if owner, taken := ports[listener.Port]; taken {
			return fmt.Errorf("listener port %d declared by both %q and %q", listener.Port, owner, listener.Name)
		}
		ports[listener.Port] = listener.Name

		if !listener.Algorithm.Known() {
			return fmt.Errorf("listener %q has unknown balancing algorithm %q", listener.Name, listener.Algorithm)
		}

		for _, backend := range pool.Backends {
			if backend.Name == "" || backend.Address == "" {
				return fmt.Errorf("listener %q has a backend without name or address", listener.Name)
			}
			if backend.Port < 1 || backend.Port > 65535 {
				return fmt.Errorf("backend %q port %d out of range", backend.Name, backend.Port)
			}
			if backend.MonitorPort != nil && (*backend.MonitorPort < 1 || *backend.MonitorPort > 65535) {
				return fmt.Errorf("backend %q monitor port %d out of range", backend.Name, *backend.MonitorPort)
			}
			if backend.Weight != nil && *backend.Weight < 1 {
				return fmt.Errorf("backend %q weight %d must be positive", backend.Name, *backend.Weight)
			}
		}
	}

	failover := t.Failover
	if failover.VirtualIP != "" && net.ParseIP(failover.VirtualIP) == nil {
		return fmt.Errorf("failover virtual_ip %q is not a valid IP address", failover.VirtualIP)
	}
	if failover.RouterID != 0 && (failover.RouterID < 1 || failover.RouterID > 255) {
		return fmt.Errorf("failover router_id %d out of range 1-255", failover.RouterID)
	}

	return nil
}
