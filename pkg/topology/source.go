package topology

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/cuemby/drover/pkg/events"
	"github.com/cuemby/drover/pkg/log"
	"github.com/cuemby/drover/pkg/types"
)

// Enqueuer receives the change events the source produces.
type Enqueuer interface {
	Enqueue(event *events.Event)
}

// Change classifies what differs between two topology snapshots.
type Change struct {
	// Pools is set when pools or bind addresses differ, requiring a
	// load-balancer reconfiguration.
	Pools bool

	// Settings is set when the failover parameters differ.
	Settings bool
}

// Diff compares two topologies and classifies the difference.
func Diff(old, new *types.Topology) Change {
	if old == nil {
		old = &types.Topology{}
	}
	if new == nil {
		new = &types.Topology{}
	}
	return Change{
		Pools: !reflect.DeepEqual(old.Pools, new.Pools) ||
			!reflect.DeepEqual(old.BindAddresses, new.BindAddresses),
		Settings: old.Failover != new.Failover,
	}
}

// FileSource watches one YAML topology document and turns edits into
// change events. The controller never reads the file itself; it asks
// the source for a snapshot on every pass.
type FileSource struct {
	path  string
	queue Enqueuer

	mu      sync.RWMutex
	current *types.Topology
	lastErr error

	watcher *fsnotify.Watcher
	logger  zerolog.Logger
}

// NewFileSource creates a source for the document at path.
func NewFileSource(path string, queue Enqueuer) *FileSource {
	return &FileSource{
		path:    path,
		queue:   queue,
		current: &types.Topology{},
		logger:  log.WithComponent("topology"),
	}
}

// Start performs the initial load (with a bounded retry, since the
// agent often races the tool that writes the document at boot) and
// begins watching the document's directory. The watch goroutine stops
// when ctx ends.
func (s *FileSource) Start(ctx context.Context) error {
	err := retry.Do(
		func() error {
			topology, loadErr := Load(s.path)
			if loadErr != nil {
				return loadErr
			}
			s.set(topology, nil)
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(attempt uint, err error) {
			s.logger.Warn().Err(err).Uint("attempt", attempt).Msg("initial topology load failed, retrying")
		}),
	)
	if err != nil {
		// A bad document at boot is an operator problem, not a fatal
		// one: remember the error and wait for the next edit.
		s.set(&types.Topology{}, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create topology watcher: %w", err)
	}
	// Watch the directory, not the file: editors and config tools
	// replace the file, which would silently drop a file-level watch.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(s.path), err)
	}
	s.watcher = watcher

	go s.watch(ctx)
	return nil
}

// Snapshot returns a deep copy of the current topology and the error
// from the last load attempt, if any.
func (s *FileSource) Snapshot() (*types.Topology, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone(), s.lastErr
}

func (s *FileSource) set(topology *types.Topology, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if topology != nil {
		s.current = topology
	}
	s.lastErr = err
}

func (s *FileSource) watch(ctx context.Context) {
	defer s.watcher.Close()

	// Editors produce bursts of events for one logical save; debounce
	// so one edit triggers one reload.
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			pending = time.After(100 * time.Millisecond)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn().Err(err).Msg("topology watcher error")
		case <-pending:
			pending = nil
			s.Reload()
		}
	}
}

// Reload re-reads the document and enqueues the change events the edit
// calls for. A load failure is remembered for Snapshot callers and
// surfaced through a config-changed event so the controller reports the
// blocked status promptly.
func (s *FileSource) Reload() {
	topology, err := Load(s.path)
	if err != nil {
		s.logger.Warn().Err(err).Msg("topology reload failed")
		s.set(nil, err)
		s.queue.Enqueue(events.New(events.EventConfigChanged))
		return
	}

	s.mu.RLock()
	previous := s.current
	s.mu.RUnlock()

	change := Diff(previous, topology)
	s.set(topology, nil)

	if !change.Pools && !change.Settings {
		s.logger.Debug().Msg("topology unchanged after reload")
		return
	}

	s.logger.Info().
		Bool("pools", change.Pools).
		Bool("settings", change.Settings).
		Msg("topology changed")

	if change.Settings {
		s.queue.Enqueue(events.New(events.EventConfigChanged))
	}
	if change.Pools {
		s.queue.Enqueue(events.New(events.EventBackendsChanged))
	}
}
