package keepalived

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/drover/pkg/template"
	"github.com/cuemby/drover/pkg/types"
)

type fakeServices struct {
	reloads []string
}

func (f *fakeServices) Start(ctx context.Context, unit string) error   { return nil }
func (f *fakeServices) Stop(ctx context.Context, unit string) error    { return nil }
func (f *fakeServices) Restart(ctx context.Context, unit string) error { return nil }

func (f *fakeServices) Reload(ctx context.Context, unit string) error {
	f.reloads = append(f.reloads, unit)
	return nil
}

func (f *fakeServices) IsActive(ctx context.Context, unit string) (bool, error) {
	return false, nil
}

func testInstance() *types.VRRPInstance {
	return &types.VRRPInstance{
		Name:            "lb",
		RouterID:        51,
		VirtualIPs:      []string{"10.0.0.100"},
		Interface:       "eth0",
		TrackInterfaces: []string{"eth0"},
		TrackScripts:    CheckScripts("lb", []int{443}),
	}
}

func TestPublishWritesDropIn(t *testing.T) {
	renderer, err := template.NewRenderer()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "conf.d", "drover.conf")
	pub := NewPublisher(PublisherConfig{OutputPath: path}, renderer, &fakeServices{})

	require.NoError(t, pub.Publish(context.Background(), testInstance()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(content), "vrrp_script lb_port_443_check {")
	assert.Contains(t, string(content), `script "bash -c '</dev/tcp/127.0.0.1/443'"`)
	assert.Contains(t, string(content), "vrrp_instance lb {")
	assert.Contains(t, string(content), "virtual_router_id 51")
	assert.Contains(t, string(content), "interface eth0")
	assert.Contains(t, string(content), "10.0.0.100")
	assert.Contains(t, string(content), "track_script {")
}

func TestPublishReloadsManagedCompanionOnChange(t *testing.T) {
	renderer, err := template.NewRenderer()
	require.NoError(t, err)

	services := &fakeServices{}
	path := filepath.Join(t.TempDir(), "drover.conf")
	pub := NewPublisher(PublisherConfig{OutputPath: path, Unit: "keepalived", ManageService: true}, renderer, services)

	require.NoError(t, pub.Publish(context.Background(), testInstance()))
	assert.Equal(t, []string{"keepalived"}, services.reloads)

	// identical content: write happens, reload does not
	require.NoError(t, pub.Publish(context.Background(), testInstance()))
	assert.Equal(t, []string{"keepalived"}, services.reloads)

	// changed content reloads again
	changed := testInstance()
	changed.RouterID = 52
	require.NoError(t, pub.Publish(context.Background(), changed))
	assert.Equal(t, []string{"keepalived", "keepalived"}, services.reloads)
}

func TestPublishUnmanagedCompanionNeverReloads(t *testing.T) {
	renderer, err := template.NewRenderer()
	require.NoError(t, err)

	services := &fakeServices{}
	path := filepath.Join(t.TempDir(), "drover.conf")
	pub := NewPublisher(PublisherConfig{OutputPath: path}, renderer, services)

	require.NoError(t, pub.Publish(context.Background(), testInstance()))

	assert.Empty(t, services.reloads)
}
