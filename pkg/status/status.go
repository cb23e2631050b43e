package status

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/drover/pkg/log"
	"github.com/cuemby/drover/pkg/metrics"
	"github.com/cuemby/drover/pkg/types"
)

// StatusStore persists the last reported status so it survives agent
// restarts.
type StatusStore interface {
	SaveStatus(status *types.Status) error
	LoadStatus() (*types.Status, error)
}

// Recorder is the agent's status surface. Every transition is logged,
// reflected in the one-hot status gauge and persisted. Safe for
// concurrent use; the HTTP server reads while the controller writes.
type Recorder struct {
	mu      sync.RWMutex
	current types.Status
	store   StatusStore
	logger  zerolog.Logger
}

// NewRecorder restores the last persisted status, falling back to
// maintenance for a fresh install.
func NewRecorder(store StatusStore) (*Recorder, error) {
	r := &Recorder{
		store:  store,
		logger: log.WithComponent("status"),
	}

	persisted, err := store.LoadStatus()
	if err != nil {
		return nil, err
	}
	if persisted != nil {
		r.current = *persisted
	} else {
		r.current = types.Status{
			Kind:  types.StatusMaintenance,
			Since: time.Now(),
		}
	}
	metrics.SetStatus(string(r.current.Kind))
	return r, nil
}

// Set records a status transition. Setting the current kind and message
// again is a no-op, so handlers can report unconditionally.
func (r *Recorder) Set(kind types.StatusKind, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current.Kind == kind && r.current.Message == message {
		return
	}

	r.current = types.Status{
		Kind:    kind,
		Message: message,
		Since:   time.Now(),
	}

	r.logger.Info().
		Str("status", string(kind)).
		Str("message", message).
		Msg("status changed")
	metrics.SetStatus(string(kind))

	if err := r.store.SaveStatus(&r.current); err != nil {
		r.logger.Warn().Err(err).Msg("failed to persist status")
	}
}

// Current returns the last recorded status.
func (r *Recorder) Current() types.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}
