package monitor

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/user/streamwarden/internal/activity"
)

// Reconciler owns the index table: the mapping from a short 1-based stream
// number to the opaque session id it referred to as of the most recent
// poll. The table is rebuilt from scratch on every poll and installed with
// a single pointer swap, so concurrent readers always see either the old
// table or the new one, never a partial rebuild.
type Reconciler struct {
	table atomic.Pointer[map[int]string]
}

// NewReconciler creates a Reconciler with an empty table.
func NewReconciler() *Reconciler {
	r := &Reconciler{}
	empty := map[int]string{}
	r.table.Store(&empty)
	return r
}

// Reconcile assigns consecutive indices to the activity's sessions in
// their returned order, installs the fresh table wholesale, and returns
// the render-ready snapshot. Sessions whose id could not be read are
// logged and skipped; the numbering stays dense. Indices are not stable
// across polls: a session can get a different number next time if the
// ordering shifts.
func (r *Reconciler) Reconcile(a *activity.Activity) *Snapshot {
	table := make(map[int]string, len(a.Sessions))
	streams := make([]StreamInfo, 0, len(a.Sessions))

	index := 0
	for _, s := range a.Sessions {
		if s.SessionID == "" {
			slog.Warn("skipping session with unreadable id", "title", s.Title, "user", s.Username)
			continue
		}
		index++
		table[index] = s.SessionID
		streams = append(streams, StreamInfo{
			Index:    index,
			Title:    streamTitle(index, s),
			Player:   s.PlayerLine(),
			Details:  s.DetailsLine(),
			Progress: s.ProgressLine(),
		})
	}

	r.table.Store(&table)

	return &Snapshot{
		Online:         true,
		Overview:       a.Overview(),
		Streams:        streams,
		StreamCount:    index,
		TranscodeCount: a.TranscodeCount,
		At:             time.Now(),
	}
}

// Offline clears the table to empty and returns the offline snapshot. Any
// index a user was previously shown is invalid from this point on, even if
// the underlying stream is still playing.
func (r *Reconciler) Offline() *Snapshot {
	empty := map[int]string{}
	r.table.Store(&empty)
	return &Snapshot{
		Online:   false,
		Overview: "Connection lost.",
		Streams:  []StreamInfo{},
		At:       time.Now(),
	}
}

// Resolve maps an index to its session id in the current table.
func (r *Reconciler) Resolve(index int) (string, bool) {
	table := *r.table.Load()
	id, ok := table[index]
	return id, ok
}

// Table returns a copy of the current index table.
func (r *Reconciler) Table() map[int]string {
	table := *r.table.Load()
	out := make(map[int]string, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out
}
