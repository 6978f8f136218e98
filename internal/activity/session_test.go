package activity

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// rawSession returns a fully-populated raw record; tests override or delete
// fields as needed.
func rawSession() map[string]any {
	return map[string]any{
		"session_id":                "abc123",
		"media_type":                "movie",
		"state":                     "playing",
		"username":                  "alice",
		"product":                   "Plex Web",
		"player":                    "Chrome",
		"quality_profile":           "Original",
		"stream_container_decision": "direct play",
		"title":                     "Inception",
		"full_title":                "Inception",
		"duration":                  "7200000",
		"view_offset":               3600000.0,
		"bandwidth":                 "4000",
	}
}

func buildSession(t *testing.T, raw map[string]any) Session {
	t.Helper()
	s, err := newSession(raw, TimeSettings{}, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("newSession failed: %v", err)
	}
	return s
}

func TestSessionNumericCoercion(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"missing", nil},
		{"non-numeric string", "not-a-number"},
		{"wrong type", []any{1, 2}},
		{"bool", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := rawSession()
			if tt.value == nil {
				delete(raw, "duration")
				delete(raw, "view_offset")
				delete(raw, "bandwidth")
			} else {
				raw["duration"] = tt.value
				raw["view_offset"] = tt.value
				raw["bandwidth"] = tt.value
			}
			s := buildSession(t, raw)
			if s.DurationMS != 0 {
				t.Errorf("expected DurationMS=0, got %d", s.DurationMS)
			}
			if s.PositionMS != 0 {
				t.Errorf("expected PositionMS=0, got %d", s.PositionMS)
			}
			if s.ProgressPercent != 0 {
				t.Errorf("expected ProgressPercent=0, got %d", s.ProgressPercent)
			}
		})
	}
}

func TestProgressPercentIsRawQuotient(t *testing.T) {
	raw := rawSession()
	raw["duration"] = 200
	raw["view_offset"] = 50
	s := buildSession(t, raw)
	// 50/200 is 0 in integer division; the value is deliberately not 25.
	if s.ProgressPercent != 0 {
		t.Errorf("expected raw quotient 0, got %d", s.ProgressPercent)
	}

	raw["view_offset"] = 200
	s = buildSession(t, raw)
	if s.ProgressPercent != 1 {
		t.Errorf("expected raw quotient 1, got %d", s.ProgressPercent)
	}
}

func TestProgressPercentZeroDuration(t *testing.T) {
	raw := rawSession()
	raw["duration"] = 0
	raw["view_offset"] = 500
	s := buildSession(t, raw)
	if s.ProgressPercent != 0 {
		t.Errorf("expected 0 for zero duration, got %d", s.ProgressPercent)
	}
}

func TestSessionMissingRequiredField(t *testing.T) {
	for _, key := range []string{"media_type", "title", "state", "username", "product", "player", "quality_profile", "stream_container_decision"} {
		t.Run(key, func(t *testing.T) {
			raw := rawSession()
			delete(raw, key)
			_, err := newSession(raw, TimeSettings{}, time.Now())
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed for missing %s, got %v", key, err)
			}
		})
	}
}

func TestSessionMissingIDIsNotFatal(t *testing.T) {
	raw := rawSession()
	delete(raw, "session_id")
	s := buildSession(t, raw)
	if s.SessionID != "" {
		t.Errorf("expected empty SessionID, got %q", s.SessionID)
	}
}

func TestSessionIsTranscoding(t *testing.T) {
	raw := rawSession()
	raw["stream_container_decision"] = "transcode"
	s := buildSession(t, raw)
	if !s.IsTranscoding {
		t.Error("expected IsTranscoding=true")
	}
	if s.TranscodingStub() != " (Transcode)" {
		t.Errorf("unexpected stub %q", s.TranscodingStub())
	}

	raw["stream_container_decision"] = "direct play"
	s = buildSession(t, raw)
	if s.IsTranscoding {
		t.Error("expected IsTranscoding=false")
	}
	if s.TranscodingStub() != "" {
		t.Errorf("unexpected stub %q", s.TranscodingStub())
	}
}

func TestSessionTitleEpisode(t *testing.T) {
	raw := rawSession()
	raw["media_type"] = "episode"
	raw["grandparent_title"] = "Severance"
	raw["parent_title"] = "Season 2"
	raw["media_index"] = 7.0
	raw["title"] = "Chikhai Bardo"
	s := buildSession(t, raw)
	want := "Severance - S02E07 - Chikhai Bardo"
	if s.Title != want {
		t.Errorf("expected %q, got %q", want, s.Title)
	}
}

func TestSessionTitleLive(t *testing.T) {
	raw := rawSession()
	raw["live"] = 1.0
	raw["grandparent_title"] = "News Channel"
	raw["title"] = "Evening Bulletin"
	s := buildSession(t, raw)
	want := "News Channel - Evening Bulletin"
	if s.Title != want {
		t.Errorf("expected %q, got %q", want, s.Title)
	}
}

func TestSessionTitleFallback(t *testing.T) {
	raw := rawSession()
	raw["full_title"] = "Inception (2010)"
	s := buildSession(t, raw)
	if s.Title != "Inception (2010)" {
		t.Errorf("expected full title fallback, got %q", s.Title)
	}
}

func TestSessionETA(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	raw := rawSession()
	raw["duration"] = 3600000 // 1h
	raw["view_offset"] = 1800000

	s, err := newSession(raw, TimeSettings{MilitaryTime: true}, now)
	if err != nil {
		t.Fatal(err)
	}
	if s.ETA != "12:30" {
		t.Errorf("expected ETA 12:30, got %q", s.ETA)
	}

	s, err = newSession(raw, TimeSettings{MilitaryTime: false}, now)
	if err != nil {
		t.Fatal(err)
	}
	if s.ETA != "12:30 PM" {
		t.Errorf("expected ETA 12:30 PM, got %q", s.ETA)
	}
}

func TestSessionETAUnknown(t *testing.T) {
	raw := rawSession()
	raw["view_offset"] = 0
	s := buildSession(t, raw)
	if s.ETA != "Unknown" {
		t.Errorf("expected Unknown ETA, got %q", s.ETA)
	}
}

func TestSessionProgressMarker(t *testing.T) {
	raw := rawSession()
	raw["duration"] = 125000 // 2:05
	raw["view_offset"] = 65000
	s := buildSession(t, raw)
	if s.ProgressMarker != "1:05/2:05" {
		t.Errorf("expected 1:05/2:05, got %q", s.ProgressMarker)
	}
}

func TestSessionDisplayLines(t *testing.T) {
	s := buildSession(t, rawSession())
	if got := s.PlayerLine(); got != "Player: Plex Web (Chrome)" {
		t.Errorf("unexpected player line %q", got)
	}
	if !strings.HasPrefix(s.DetailsLine(), "Quality: Original (") {
		t.Errorf("unexpected details line %q", s.DetailsLine())
	}
	if !strings.HasPrefix(s.ProgressLine(), "Progress: ") {
		t.Errorf("unexpected progress line %q", s.ProgressLine())
	}
}

func TestTypeIcon(t *testing.T) {
	raw := rawSession()
	raw["media_type"] = "sporting_event" // unknown type
	s := buildSession(t, raw)
	if s.TypeIcon != "🎁" {
		t.Errorf("expected fallback icon, got %q", s.TypeIcon)
	}

	raw["live"] = true
	s = buildSession(t, raw)
	if s.TypeIcon != "📡" {
		t.Errorf("expected live icon, got %q", s.TypeIcon)
	}
}
