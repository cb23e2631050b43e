package haproxy

import (
	"fmt"

	"github.com/cuemby/drover/pkg/types"
)

// balancingAlgorithms maps the topology's balancing algorithms to the
// names haproxy uses in its configuration.
var balancingAlgorithms = map[types.BalancingAlgorithm]string{
	types.AlgorithmRoundRobin:       "roundrobin",
	types.AlgorithmLeastConnections: "leastconn",
	types.AlgorithmSourceIP:         "source",
}

// BuildListenSections transforms backend pools into listen sections,
// one per pool in input order. It is a pure function: deterministic for
// identical input and free of side effects, so it is safe to run on
// every reconfiguration.
//
// Each listener's port is combined with every bind address; an empty
// address set produces a single wildcard bind. Two pools declaring the
// same listener port are rejected. An unknown balancing algorithm is an
// invariant violation and fails immediately rather than falling back to
// a default.
func BuildListenSections(pools []types.BackendPool, bindAddresses []string) ([]ListenSection, error) {
	sections := make([]ListenSection, 0, len(pools))
	portOwners := make(map[int]string, len(pools))

	for _, pool := range pools {
		listener := pool.Listener
		if owner, taken := portOwners[listener.Port]; taken {
			return nil, fmt.Errorf("listener port %d of pool %q already used by pool %q", listener.Port, listener.Name, owner)
		}
		portOwners[listener.Port] = listener.Name

		balance, known := balancingAlgorithms[listener.Algorithm]
		if !known {
			return nil, fmt.Errorf("unknown balancing algorithm %q for pool %q", listener.Algorithm, listener.Name)
		}

		sections = append(sections, ListenSection{
			Name:      listener.Name,
			BindSpecs: bindSpecs(bindAddresses, listener.Port),
			Mode:      "tcp",
			Balance:   balance,
			Servers:   serverSpecs(pool.Backends),
		})
	}

	return sections, nil
}

func bindSpecs(addresses []string, port int) []BindSpec {
	if len(addresses) == 0 {
		return []BindSpec{{Address: "", Port: port}}
	}
	specs := make([]BindSpec, 0, len(addresses))
	for _, address := range addresses {
		specs = append(specs, BindSpec{Address: address, Port: port})
	}
	return specs
}

func serverSpecs(backends []types.Backend) []ServerSpec {
	specs := make([]ServerSpec, 0, len(backends))
	for _, backend := range backends {
		spec := ServerSpec{
			Name:      backend.Name,
			Address:   backend.Address,
			Port:      backend.Port,
			CheckPort: backend.CheckPort(),
		}
		if backend.Weight != nil {
			weight := *backend.Weight
			spec.Weight = &weight
		}
		specs = append(specs, spec)
	}
	return specs
}
