package haproxy

import (
	"fmt"
	"strings"
)

// BindSpec is one concrete socket a listener binds. An empty address
// means the wildcard address, rendered as ":<port>".
type BindSpec struct {
	Address string
	Port    int
}

func (b BindSpec) String() string {
	return fmt.Sprintf("%s:%d", b.Address, b.Port)
}

// ServerSpec is one server line inside a listen section.
type ServerSpec struct {
	Name      string
	Address   string
	Port      int
	CheckPort int

	// Weight is omitted from the rendered line when nil, deferring to
	// haproxy's own default weight.
	Weight *int
}

func (s ServerSpec) String() string {
	out := fmt.Sprintf("server %s %s:%d check port %d", s.Name, s.Address, s.Port, s.CheckPort)
	if s.Weight != nil {
		out += fmt.Sprintf(" weight %d", *s.Weight)
	}
	return out
}

// ListenSection is the render model for one listen block of the
// generated configuration.
type ListenSection struct {
	Name      string
	BindSpecs []BindSpec
	Mode      string
	Balance   string
	Servers   []ServerSpec
}

// BindList returns the comma-joined bind specifications for the
// section's single bind directive.
func (l ListenSection) BindList() string {
	parts := make([]string, len(l.BindSpecs))
	for i, spec := range l.BindSpecs {
		parts[i] = spec.String()
	}
	return strings.Join(parts, ",")
}
