// internal/httpapi/server.go
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/user/streamwarden/internal/monitor"
)

// Monitor is the slice of the stream monitor the HTTP API exposes.
type Monitor interface {
	Latest() *monitor.Snapshot
	Table() map[int]string
	Terminate(ctx context.Context, index int) monitor.Outcome
}

// Digester renders the library statistics summary on demand.
type Digester func(ctx context.Context) string

// Server is a lightweight HTTP handler for the monitoring API.
type Server struct {
	monitor     Monitor
	digest      Digester
	broadcaster *Broadcaster
	started     time.Time
	mux         *http.ServeMux
}

// NewServer creates a Server over the given monitor. digest may be nil when
// library statistics are not configured.
func NewServer(mon Monitor, digest Digester) *Server {
	s := &Server{
		monitor: mon,
		digest:  digest,
		started: time.Now(),
		mux:     http.NewServeMux(),
	}
	s.broadcaster = NewBroadcaster(mon.Latest)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/activity", s.handleActivity)
	s.mux.HandleFunc("GET /api/table", s.handleTable)
	s.mux.HandleFunc("POST /api/terminate/", s.handleTerminate)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /ws", s.handleWS)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Publish pushes a fresh snapshot to all websocket clients.
func (s *Server) Publish(snap *monitor.Snapshot) {
	s.broadcaster.Publish(snap)
}

type healthResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	Hostname      string  `json:"hostname,omitempty"`
	Platform      string  `json:"platform,omitempty"`
	MemoryPercent float64 `json:"memory_percent,omitempty"`
	ProcessRSS    uint64  `json:"process_rss,omitempty"`
	WSClients     int     `json:"ws_clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		WSClients:     s.broadcaster.ClientCount(),
	}

	// Host metrics are best effort; the endpoint stays "ok" without them.
	if info, err := host.Info(); err == nil {
		resp.Hostname = info.Hostname
		resp.Platform = info.Platform
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp.MemoryPercent = vm.UsedPercent
	}
	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := proc.MemoryInfo(); err == nil {
			resp.ProcessRSS = mi.RSS
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	snap := s.monitor.Latest()
	if snap == nil {
		http.Error(w, `{"error":"no snapshot yet"}`, http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	table := s.monitor.Table()
	out := make(map[string]string, len(table))
	for index, id := range table {
		out[strconv.Itoa(index)] = id
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

type terminateResponse struct {
	Index   int    `json:"index"`
	Outcome string `json:"outcome"`
	Message string `json:"message"`
}

func (s *Server) handleTerminate(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/api/terminate/")
	index, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, `{"error":"stream number must be an integer"}`, http.StatusBadRequest)
		return
	}

	outcome := s.monitor.Terminate(r.Context(), index)
	status := http.StatusOK
	switch outcome {
	case monitor.OutcomeRejected:
		status = http.StatusNotFound
	case monitor.OutcomeDenied:
		status = http.StatusConflict
	case monitor.OutcomeFailed:
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(terminateResponse{
		Index:   index,
		Outcome: outcome.String(),
		Message: outcome.Message(index),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.digest == nil {
		http.Error(w, `{"error":"library statistics not configured"}`, http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"digest": s.digest(r.Context())})
}

var upgrader = websocket.Upgrader{
	// The API binds to loopback by default; same-host pages are fine.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "error", err)
		return
	}

	slog.Info("ws client connected", "remote", r.RemoteAddr)
	c := s.broadcaster.AddClient(conn)

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			slog.Info("ws client disconnected", "remote", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
