package keepalived

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/cuemby/drover/pkg/types"
)

// DefaultRouterID is used when the operator leaves the router id
// unset. Peers must agree on it, so every unit derives the same
// default.
const DefaultRouterID = 50

var (
	// ErrNoVirtualIP means the operator has not supplied a virtual IP
	// yet. Recoverable by configuration, surfaced as a blocked status.
	ErrNoVirtualIP = errors.New("no virtual IP configured")

	// ErrNoInterface means no usable network interface could be
	// determined for the virtual IP. Also recoverable.
	ErrNoInterface = errors.New("no usable network interface")
)

// BuildVRRPInstance synthesizes the failover definition published for
// the keepalived companion: one TCP-reachability check script per
// frontend port, tracking the interface that carries the virtual IP.
func BuildVRRPInstance(serviceName string, routerID int, virtualIPs []string, iface string, frontendPorts []int) (*types.VRRPInstance, error) {
	ips := make([]string, 0, len(virtualIPs))
	for _, ip := range virtualIPs {
		if strings.TrimSpace(ip) != "" {
			ips = append(ips, ip)
		}
	}
	if len(ips) == 0 {
		return nil, ErrNoVirtualIP
	}
	if iface == "" {
		return nil, ErrNoInterface
	}

	return &types.VRRPInstance{
		Name:            serviceName,
		RouterID:        routerID,
		VirtualIPs:      ips,
		Interface:       iface,
		TrackInterfaces: []string{iface},
		TrackScripts:    CheckScripts(serviceName, frontendPorts),
	}, nil
}

// CheckScripts builds one probe per frontend port. Names are
// deterministic and unique per port so the companion can update scripts
// in place across reconfigurations.
func CheckScripts(serviceName string, ports []int) []types.VRRPScript {
	scripts := make([]types.VRRPScript, 0, len(ports))
	for _, port := range ports {
		scripts = append(scripts, types.VRRPScript{
			Name:         fmt.Sprintf("%s_port_%d_check", serviceName, port),
			CheckCommand: fmt.Sprintf("bash -c '</dev/tcp/127.0.0.1/%d'", port),
		})
	}
	return scripts
}

// DetectInterface picks the interface keepalived should claim the
// virtual IP on when the operator leaves it unset: the interface owning
// a subnet containing the virtual IP wins, otherwise the first up,
// non-loopback interface with an IPv4 address.
func DetectInterface(virtualIP string) (string, error) {
	vip := net.ParseIP(virtualIP)

	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("failed to list network interfaces: %w", err)
	}

	fallback := ""
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if vip != nil && ipnet.Contains(vip) {
				return iface.Name, nil
			}
			if fallback == "" && ipnet.IP.To4() != nil {
				fallback = iface.Name
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}
	return "", ErrNoInterface
}
