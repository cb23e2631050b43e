package system

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeRunner records executed commands and replays scripted results.
type fakeRunner struct {
	commands []string
	output   []byte
	err      error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := name
	for _, a := range args {
		cmd += " " + a
	}
	f.commands = append(f.commands, cmd)
	return f.output, f.err
}

func TestAptManagerCommands(t *testing.T) {
	tests := []struct {
		name string
		call func(ctx context.Context, m *AptManager) error
		want string
	}{
		{
			name: "update",
			call: func(ctx context.Context, m *AptManager) error { return m.Update(ctx) },
			want: "apt update",
		},
		{
			name: "install",
			call: func(ctx context.Context, m *AptManager) error { return m.Install(ctx, "haproxy") },
			want: "apt install -yq haproxy",
		},
		{
			name: "purge",
			call: func(ctx context.Context, m *AptManager) error { return m.Purge(ctx, "haproxy") },
			want: "apt purge -yq haproxy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			mgr := NewAptManager(runner)

			err := tt.call(context.Background(), mgr)

			assert.NoError(t, err)
			assert.Equal(t, []string{tt.want}, runner.commands)
		})
	}
}

func TestAptManagerWrapsFailureWithOutput(t *testing.T) {
	cause := errors.New("exit status 100")
	runner := &fakeRunner{output: []byte("E: Unable to locate package haproxy"), err: cause}
	mgr := NewAptManager(runner)

	err := mgr.Install(context.Background(), "haproxy")

	assert.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Unable to locate package")
}

func TestSystemdManagerCommands(t *testing.T) {
	tests := []struct {
		name   string
		call   func(ctx context.Context, m *SystemdManager) error
		action string
	}{
		{"start", func(ctx context.Context, m *SystemdManager) error { return m.Start(ctx, "haproxy") }, "start"},
		{"stop", func(ctx context.Context, m *SystemdManager) error { return m.Stop(ctx, "haproxy") }, "stop"},
		{"restart", func(ctx context.Context, m *SystemdManager) error { return m.Restart(ctx, "haproxy") }, "restart"},
		{"reload", func(ctx context.Context, m *SystemdManager) error { return m.Reload(ctx, "keepalived") }, "reload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			mgr := NewSystemdManager(runner)

			err := tt.call(context.Background(), mgr)

			assert.NoError(t, err)
			assert.Len(t, runner.commands, 1)
			assert.Contains(t, runner.commands[0], "systemctl "+tt.action)
		})
	}
}

func TestSystemdManagerControlFailure(t *testing.T) {
	cause := errors.New("exit status 5")
	runner := &fakeRunner{output: []byte("Unit haproxy.service not found."), err: cause}
	mgr := NewSystemdManager(runner)

	err := mgr.Start(context.Background(), "haproxy")

	assert.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "not found")
}

func TestSystemdManagerIsActive(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		err     error
		want    bool
		wantErr bool
	}{
		{"active", "active\n", nil, true, false},
		{"inactive", "inactive\n", errors.New("exit status 3"), false, false},
		{"failed unit", "failed\n", errors.New("exit status 3"), false, false},
		{"command failure", "", errors.New("exec: systemctl not found"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{output: []byte(tt.output), err: tt.err}
			mgr := NewSystemdManager(runner)

			active, err := mgr.IsActive(context.Background(), "haproxy")

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, active)
		})
	}
}

func TestExecRunnerReturnsOutput(t *testing.T) {
	out, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "printf hello")

	assert.NoError(t, err)
	assert.Equal(t, "hello", string(out))
}

func TestExecRunnerFailureKeepsOutput(t *testing.T) {
	out, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "printf oops; exit 2")

	assert.Error(t, err)
	assert.Equal(t, "oops", string(out))

	wrapped := fmt.Errorf("command failed: %w (output: %s)", err, string(out))
	assert.Contains(t, wrapped.Error(), "oops")
}
