package activity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformed is returned when a payload is missing a field the models
// cannot do without. It aborts the whole snapshot; per-session problems
// (an unreadable session id) do not.
var ErrMalformed = errors.New("activity: malformed payload")

// TimeSettings carries the operator's clock preferences into ETA rendering.
type TimeSettings struct {
	Location     *time.Location
	MilitaryTime bool
}

// statusIcons maps playback state to its display icon.
var statusIcons = map[string]string{
	"playing":   "▶️",
	"paused":    "⏸",
	"stopped":   "⏹",
	"buffering": "⏳",
	"error":     "⚠️",
}

// mediaTypeIcons maps media type to its display icon.
var mediaTypeIcons = map[string]string{
	"movie":   "🎞",
	"episode": "📺",
	"track":   "🎧",
	"clip":    "🎬",
	"photo":   "🖼",
	"live":    "📡",
}

// Session is a fully-populated, read-only view over one raw session record.
// Construction coerces every numeric field defensively (missing or
// non-numeric values become 0) and only fails when a structurally required
// field is absent.
type Session struct {
	SessionID      string
	Username       string
	Product        string
	Player         string
	QualityProfile string
	State          string
	MediaType      string
	Title          string

	DurationMS int
	PositionMS int

	// ProgressPercent is the integer quotient of position over duration,
	// as reported by earlier versions of this connector. It stays 0 until
	// playback reaches the very end; downstream consumers depend on the
	// raw value, so it is not normalized to a 0-100 scale.
	ProgressPercent int

	ProgressMarker string
	ETA            string
	Bandwidth      string
	IsTranscoding  bool
	StatusIcon     string
	TypeIcon       string
}

// requireString reads a field the raw record must carry.
func requireString(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrMalformed, key)
	}
	return ToString(v), nil
}

// newSession builds a Session from one raw record. now anchors the ETA
// computation.
func newSession(raw map[string]any, settings TimeSettings, now time.Time) (Session, error) {
	var s Session
	var err error

	if s.MediaType, err = requireString(raw, "media_type"); err != nil {
		return Session{}, err
	}
	if s.State, err = requireString(raw, "state"); err != nil {
		return Session{}, err
	}
	if s.Username, err = requireString(raw, "username"); err != nil {
		return Session{}, err
	}
	if s.Product, err = requireString(raw, "product"); err != nil {
		return Session{}, err
	}
	if s.Player, err = requireString(raw, "player"); err != nil {
		return Session{}, err
	}
	if s.QualityProfile, err = requireString(raw, "quality_profile"); err != nil {
		return Session{}, err
	}
	decision, err := requireString(raw, "stream_container_decision")
	if err != nil {
		return Session{}, err
	}
	s.IsTranscoding = decision == "transcode"

	title, err := sessionTitle(raw)
	if err != nil {
		return Session{}, err
	}
	s.Title = title

	// An unreadable session id is a per-session problem: the reconciler
	// skips the session instead of aborting the snapshot.
	s.SessionID = ToString(raw["session_id"])

	s.DurationMS = ToInt(raw["duration"])
	s.PositionMS = ToInt(raw["view_offset"])
	if s.DurationMS > 0 {
		s.ProgressPercent = s.PositionMS / s.DurationMS
	}
	s.ProgressMarker = fmt.Sprintf("%s/%s", msToClock(s.PositionMS), msToClock(s.DurationMS))

	if s.DurationMS == 0 || s.PositionMS == 0 {
		s.ETA = "Unknown"
	} else {
		s.ETA = etaClock(now, s.DurationMS-s.PositionMS, settings.Location, settings.MilitaryTime)
	}

	kbps := ToInt(raw["bandwidth"])
	s.Bandwidth = HumanBitrate(float64(kbps) * 1024)

	s.StatusIcon = statusIcons[s.State]
	s.TypeIcon = typeIcon(s.MediaType, raw)

	return s, nil
}

// sessionTitle composes the display title: live streams and episodes get
// show context, everything else falls back to the full title.
func sessionTitle(raw map[string]any) (string, error) {
	title, err := requireString(raw, "title")
	if err != nil {
		return "", err
	}
	grandparent := ToString(raw["grandparent_title"])

	if truthy(raw["live"]) {
		return fmt.Sprintf("%s - %s", grandparent, title), nil
	}
	if ToString(raw["media_type"]) == "episode" {
		season := strings.TrimPrefix(ToString(raw["parent_title"]), "Season ")
		episode := ToString(raw["media_index"])
		return fmt.Sprintf("%s - S%sE%s - %s", grandparent, zeroPad(season), zeroPad(episode), title), nil
	}
	return ToString(raw["full_title"]), nil
}

// zeroPad left-pads a numeric string to two digits.
func zeroPad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// typeIcon picks the media-type icon, treating anything flagged live as a
// live stream and logging nothing for unknown types; they get a fallback.
func typeIcon(mediaType string, raw map[string]any) string {
	if icon, ok := mediaTypeIcons[mediaType]; ok {
		return icon
	}
	if truthy(raw["live"]) {
		return mediaTypeIcons["live"]
	}
	return "🎁"
}

// TranscodingStub is the suffix appended to the details line for
// transcoding sessions.
func (s Session) TranscodingStub() string {
	if s.IsTranscoding {
		return " (Transcode)"
	}
	return ""
}

// PlayerLine renders the product/player line for display.
func (s Session) PlayerLine() string {
	return fmt.Sprintf("Player: %s (%s)", s.Product, s.Player)
}

// DetailsLine renders the quality/bandwidth line for display.
func (s Session) DetailsLine() string {
	return fmt.Sprintf("Quality: %s (%s)%s", s.QualityProfile, s.Bandwidth, s.TranscodingStub())
}

// ProgressLine renders the progress/ETA line for display.
func (s Session) ProgressLine() string {
	return fmt.Sprintf("Progress: %s (ETA: %s)", s.ProgressMarker, s.ETA)
}
