package server

import (
	"context"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/opcmap/policymap/pkg/store"
)

// Source hands out snapshots to request handlers. Snapshots are immutable;
// a handler uses exactly one for the whole request.
type Source interface {
	Snapshot(ctx context.Context) (*store.Snapshot, error)
}

// LoaderSource loads a fresh snapshot for every request.
type LoaderSource struct {
	Loader *store.Loader
}

// Snapshot implements Source.
func (s LoaderSource) Snapshot(ctx context.Context) (*store.Snapshot, error) {
	return s.Loader.Load(ctx)
}

// LiveSource serves one snapshot until Reload replaces it. Requests in
// flight keep the snapshot they started with.
type LiveSource struct {
	loader  *store.Loader
	logger  *log.Logger
	current atomic.Pointer[store.Snapshot]
}

// NewLiveSource performs the initial load. A failed initial load is fatal.
func NewLiveSource(ctx context.Context, loader *store.Loader) (*LiveSource, error) {
	s := &LiveSource{loader: loader, logger: loader.Logger}
	snap, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.current.Store(snap)
	return s, nil
}

// Snapshot implements Source.
func (s *LiveSource) Snapshot(context.Context) (*store.Snapshot, error) {
	return s.current.Load(), nil
}

// Reload loads a new snapshot and swaps it in. On failure the previous
// snapshot stays in service and the error is returned.
func (s *LiveSource) Reload(ctx context.Context) error {
	snap, err := s.loader.Load(ctx)
	if err != nil {
		s.logger.Error("Reload failed, keeping previous data", "err", err)
		return err
	}
	prev := s.current.Swap(snap)
	if prev != nil && prev.Fingerprint == snap.Fingerprint {
		s.logger.Debug("Reload found no changes")
		return nil
	}
	s.logger.Info("Reloaded data", "policies", len(snap.Policies), "parks", len(snap.Parks))
	return nil
}
