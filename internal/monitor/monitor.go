// Package monitor polls the media-server activity feed, maintains the
// index table that lets an operator address a stream by a short number,
// and handles terminate-by-index commands.
package monitor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/user/streamwarden/internal/activity"
)

// API is the slice of the Tautulli client the monitor needs.
type API interface {
	Activity(ctx context.Context) (map[string]any, error)
	TerminateSession(ctx context.Context, sessionID, message string) (bool, error)
	ServerStatus(ctx context.Context) (bool, error)
}

// Reporter receives best-effort operational events. Implementations must
// never let a reporting failure reach the caller.
type Reporter interface {
	Event(category, action string)
}

// Monitor ties the API client to the reconciler. One Monitor runs one
// serial poll loop; terminate commands may arrive concurrently with a
// poll in flight.
type Monitor struct {
	api              API
	reconciler       *Reconciler
	reporter         Reporter
	settings         activity.TimeSettings
	terminateMessage string
	interval         time.Duration

	last atomic.Pointer[Snapshot]
}

// New creates a Monitor. reporter may be nil.
func New(api API, reporter Reporter, settings activity.TimeSettings, terminateMessage string, interval time.Duration) *Monitor {
	return &Monitor{
		api:              api,
		reconciler:       NewReconciler(),
		reporter:         reporter,
		settings:         settings,
		terminateMessage: terminateMessage,
		interval:         interval,
	}
}

// report logs the error and forwards it to the analytics reporter.
func (m *Monitor) report(op string, err error) {
	slog.Error("monitor operation failed", "op", op, "error", err)
	if m.reporter != nil {
		m.reporter.Event("Error", op)
	}
}

// Refresh performs one poll: fetch, build models, reconcile. A transport
// failure, empty payload, or malformed payload all degrade the same way:
// the table is cleared and the offline snapshot is returned.
func (m *Monitor) Refresh(ctx context.Context) *Snapshot {
	payload, err := m.api.Activity(ctx)
	if err != nil {
		m.report("refresh (connectivity)", err)
		return m.store(m.reconciler.Offline())
	}

	act, err := activity.New(payload, m.settings)
	if err != nil {
		m.report("refresh (malformed)", err)
		return m.store(m.reconciler.Offline())
	}

	snap := m.reconciler.Reconcile(act)

	connected, err := m.api.ServerStatus(ctx)
	if err != nil {
		slog.Warn("server status check failed", "error", err)
		connected = false
	}
	snap.ServerOnline = connected

	slog.Debug("poll complete", "streams", snap.StreamCount, "transcodes", snap.TranscodeCount)
	return m.store(snap)
}

func (m *Monitor) store(snap *Snapshot) *Snapshot {
	m.last.Store(snap)
	return snap
}

// Latest returns the most recent snapshot, or nil before the first poll.
func (m *Monitor) Latest() *Snapshot {
	return m.last.Load()
}

// Table returns a copy of the current index table.
func (m *Monitor) Table() map[int]string {
	return m.reconciler.Table()
}

// Terminate resolves an index against the current table and asks the
// server to stop the mapped session. The table is never mutated here; a
// stopped session disappears from it on the next poll.
func (m *Monitor) Terminate(ctx context.Context, index int) Outcome {
	sessionID, ok := m.reconciler.Resolve(index)
	if !ok {
		return OutcomeRejected
	}

	slog.Info("terminating stream", "index", index, "session_id", sessionID)
	accepted, err := m.api.TerminateSession(ctx, sessionID, m.terminateMessage)
	if err != nil {
		m.report("terminate", err)
		return OutcomeFailed
	}
	if !accepted {
		return OutcomeDenied
	}
	return OutcomeTerminated
}

// Run polls on the configured interval until ctx is cancelled, invoking
// onSnapshot after each completed poll. The first poll happens
// immediately. Polls are strictly serial: the next tick is not evaluated
// until the previous reconciliation has been installed.
func (m *Monitor) Run(ctx context.Context, onSnapshot func(*Snapshot)) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	poll := func() {
		snap := m.Refresh(ctx)
		if onSnapshot != nil {
			onSnapshot(snap)
		}
	}

	poll()
	for {
		select {
		case <-ticker.C:
			poll()
		case <-ctx.Done():
			return
		}
	}
}
