package haproxy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/drover/pkg/template"
	"github.com/cuemby/drover/pkg/types"
)

type fakePackages struct {
	calls      []string
	installErr error
}

func (f *fakePackages) Update(ctx context.Context) error {
	f.calls = append(f.calls, "update")
	return nil
}

func (f *fakePackages) Install(ctx context.Context, pkg string) error {
	f.calls = append(f.calls, "install "+pkg)
	return f.installErr
}

func (f *fakePackages) Purge(ctx context.Context, pkg string) error {
	f.calls = append(f.calls, "purge "+pkg)
	return nil
}

type fakeServices struct {
	calls []string
}

func (f *fakeServices) Start(ctx context.Context, unit string) error {
	f.calls = append(f.calls, "start "+unit)
	return nil
}

func (f *fakeServices) Stop(ctx context.Context, unit string) error {
	f.calls = append(f.calls, "stop "+unit)
	return nil
}

func (f *fakeServices) Restart(ctx context.Context, unit string) error {
	f.calls = append(f.calls, "restart "+unit)
	return nil
}

func (f *fakeServices) Reload(ctx context.Context, unit string) error {
	f.calls = append(f.calls, "reload "+unit)
	return nil
}

func (f *fakeServices) IsActive(ctx context.Context, unit string) (bool, error) {
	return false, nil
}

type memoryStateStore struct {
	state *types.LifecycleState
	saves int
}

func (m *memoryStateStore) SaveLifecycleState(state *types.LifecycleState) error {
	cp := *state
	m.state = &cp
	m.saves++
	return nil
}

func (m *memoryStateStore) LoadLifecycleState() (*types.LifecycleState, error) {
	return m.state, nil
}

func newTestManager(t *testing.T) (*InstanceManager, *fakePackages, *fakeServices, *memoryStateStore) {
	t.Helper()

	renderer, err := template.NewRenderer()
	require.NoError(t, err)

	dir := t.TempDir()
	cfg := InstanceConfig{
		ConfigPath:  filepath.Join(dir, "drover-web.cfg"),
		EnvFilePath: filepath.Join(dir, "haproxy.env"),
		Unit:        "haproxy",
		Package:     "haproxy",
	}

	packages := &fakePackages{}
	services := &fakeServices{}
	store := &memoryStateStore{}

	mgr, err := NewInstanceManager(cfg, packages, services, renderer, store)
	require.NoError(t, err)

	return mgr, packages, services, store
}

func TestInstallWiresEnvironmentAndResetsConfig(t *testing.T) {
	mgr, packages, _, store := newTestManager(t)

	err := mgr.Install(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, []string{"update", "install haproxy"}, packages.calls)

	env, readErr := os.ReadFile(mgr.cfg.EnvFilePath)
	require.NoError(t, readErr)
	assert.Contains(t, string(env), `EXTRAOPTS="-f `+mgr.cfg.ConfigPath+`"`)

	conf, readErr := os.ReadFile(mgr.cfg.ConfigPath)
	require.NoError(t, readErr)
	assert.Empty(t, conf)

	assert.True(t, mgr.State().Installed)
	require.NotNil(t, store.state)
	assert.True(t, store.state.Installed)
}

func TestInstallIsIdempotent(t *testing.T) {
	mgr, packages, _, _ := newTestManager(t)

	require.NoError(t, mgr.Install(context.Background()))
	require.NoError(t, mgr.Install(context.Background()))

	assert.Equal(t, []string{"update", "install haproxy", "update", "install haproxy"}, packages.calls)
	assert.True(t, mgr.State().Installed)
}

func TestInstallFailureLeavesStateUninstalled(t *testing.T) {
	mgr, packages, _, store := newTestManager(t)
	packages.installErr = errors.New("exit status 100")

	err := mgr.Install(context.Background())

	assert.Error(t, err)
	assert.False(t, mgr.State().Installed)
	assert.Nil(t, store.state)
}

func TestStartIsNoOpWhenAlreadyStarted(t *testing.T) {
	mgr, _, services, _ := newTestManager(t)

	require.NoError(t, mgr.Start(context.Background()))
	require.NoError(t, mgr.Start(context.Background()))

	assert.Equal(t, []string{"start haproxy"}, services.calls)
	assert.True(t, mgr.State().Started)
	assert.Equal(t, types.PhaseStarted, mgr.State().Phase())
}

func TestStopIsNoOpWhenAlreadyStopped(t *testing.T) {
	mgr, _, services, _ := newTestManager(t)

	require.NoError(t, mgr.Stop(context.Background()))

	assert.Empty(t, services.calls)
	assert.False(t, mgr.State().Started)
}

func TestStartStopRoundTrip(t *testing.T) {
	mgr, _, services, _ := newTestManager(t)

	require.NoError(t, mgr.Start(context.Background()))
	require.NoError(t, mgr.Stop(context.Background()))

	assert.Equal(t, []string{"start haproxy", "stop haproxy"}, services.calls)
	assert.False(t, mgr.State().Started)
	assert.Equal(t, types.PhaseStopped, mgr.State().Phase())
}

func TestReconfigureWithoutStartWritesButDoesNotRestart(t *testing.T) {
	mgr, _, services, _ := newTestManager(t)

	sections := []ListenSection{
		{
			Name:      "web",
			BindSpecs: []BindSpec{{Address: "10.0.0.1", Port: 443}},
			Mode:      "tcp",
			Balance:   "roundrobin",
			Servers: []ServerSpec{
				{Name: "web-0", Address: "10.1.2.3", Port: 8443, CheckPort: 8443},
			},
		},
	}

	err := mgr.Reconfigure(context.Background(), sections)

	assert.NoError(t, err)
	assert.Empty(t, services.calls)

	content, readErr := os.ReadFile(mgr.cfg.ConfigPath)
	require.NoError(t, readErr)
	assert.Contains(t, string(content), "listen web")
	assert.Contains(t, string(content), "bind 10.0.0.1:443")
	assert.Contains(t, string(content), "balance roundrobin")
	assert.Contains(t, string(content), "server web-0 10.1.2.3:8443 check port 8443")
}

func TestReconfigureWhenStartedRestarts(t *testing.T) {
	mgr, _, services, _ := newTestManager(t)

	require.NoError(t, mgr.Start(context.Background()))
	require.NoError(t, mgr.Reconfigure(context.Background(), nil))

	assert.Equal(t, []string{"start haproxy", "restart haproxy"}, services.calls)
}

func TestUninstallPurgesAndRemovesArtifacts(t *testing.T) {
	mgr, packages, _, _ := newTestManager(t)

	require.NoError(t, mgr.Install(context.Background()))
	require.NoError(t, mgr.Uninstall(context.Background()))

	assert.Contains(t, packages.calls, "purge haproxy")

	_, err := os.Stat(mgr.cfg.ConfigPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(mgr.cfg.EnvFilePath)
	assert.True(t, os.IsNotExist(err))

	// bookkeeping survives; uninstall is terminal for the caller
	assert.True(t, mgr.State().Installed)
}

func TestStatePersistsAcrossManagers(t *testing.T) {
	renderer, err := template.NewRenderer()
	require.NoError(t, err)

	dir := t.TempDir()
	cfg := InstanceConfig{
		ConfigPath:  filepath.Join(dir, "drover.cfg"),
		EnvFilePath: filepath.Join(dir, "haproxy.env"),
		Unit:        "haproxy",
		Package:     "haproxy",
	}
	store := &memoryStateStore{}

	first, err := NewInstanceManager(cfg, &fakePackages{}, &fakeServices{}, renderer, store)
	require.NoError(t, err)
	require.NoError(t, first.Install(context.Background()))
	require.NoError(t, first.Start(context.Background()))

	second, err := NewInstanceManager(cfg, &fakePackages{}, &fakeServices{}, renderer, store)
	require.NoError(t, err)

	assert.True(t, second.State().Installed)
	assert.True(t, second.State().Started)
	assert.Equal(t, types.PhaseStarted, second.State().Phase())
}
