// Package activity converts raw Tautulli payloads into immutable,
// display-ready session and snapshot models.
package activity

import (
	"fmt"
	"strings"
	"time"
)

// Activity is the derived view over one raw activity payload. Sessions keep
// the order the API returned them in; that order is the basis for index
// assignment downstream.
type Activity struct {
	StreamCount    int
	TranscodeCount int

	// TotalBandwidth and LANBandwidth are display strings, empty when the
	// raw value was absent or non-numeric. WANBandwidth is derived from
	// the difference of the two raw values and reads "unavailable" when
	// neither input was renderable.
	TotalBandwidth string
	LANBandwidth   string
	WANBandwidth   string

	Sessions []Session
}

// New builds an Activity from a raw payload. It fails only when a session
// record is missing a structurally required field; every numeric field
// coerces to 0 instead of failing.
func New(raw map[string]any, settings TimeSettings) (*Activity, error) {
	return build(raw, settings, time.Now())
}

func build(raw map[string]any, settings TimeSettings, now time.Time) (*Activity, error) {
	a := &Activity{
		StreamCount: ToInt(raw["stream_count"]),
	}

	if rawSessions, ok := raw["sessions"].([]any); ok {
		a.Sessions = make([]Session, 0, len(rawSessions))
		for i, entry := range rawSessions {
			record, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: session %d is not an object", ErrMalformed, i)
			}
			session, err := newSession(record, settings, now)
			if err != nil {
				return nil, err
			}
			a.Sessions = append(a.Sessions, session)
		}
	}

	// Counted from stream_container_decision rather than trusting the
	// server's transcode_count field, which judges by transcode_decision.
	// Floored at zero in case the upstream data is corrupt.
	transcodes := 0
	for _, s := range a.Sessions {
		if s.IsTranscoding {
			transcodes++
		}
	}
	a.TranscodeCount = max(0, transcodes)

	totalRaw, totalOK := coerceFloat(raw["total_bandwidth"])
	lanRaw, lanOK := coerceFloat(raw["lan_bandwidth"])
	if totalOK {
		a.TotalBandwidth = HumanBitrate(totalRaw * 1024)
	}
	if lanOK {
		a.LANBandwidth = HumanBitrate(lanRaw * 1024)
	}
	if totalOK || lanOK {
		wan := ToInt(raw["total_bandwidth"]) - ToInt(raw["lan_bandwidth"])
		a.WANBandwidth = HumanBitrate(float64(wan) * 1024)
	} else {
		a.WANBandwidth = "unavailable"
	}

	return a, nil
}

// Overview renders the aggregate summary line, e.g.
// "2 streams (1 transcode) | Bandwidth: 4.0 Mbps (LAN: 2.0 Mbps)".
// Zero streams or missing bandwidth leave their parts out.
func (a *Activity) Overview() string {
	var b strings.Builder

	if a.StreamCount > 0 {
		fmt.Fprintf(&b, "%d %s", a.StreamCount, plural("stream", a.StreamCount))
		if a.TranscodeCount > 0 {
			fmt.Fprintf(&b, " (%d %s)", a.TranscodeCount, plural("transcode", a.TranscodeCount))
		}
	}

	if a.TotalBandwidth != "" {
		if b.Len() > 0 {
			b.WriteString(" | ")
		}
		fmt.Fprintf(&b, "Bandwidth: %s", a.TotalBandwidth)
		if a.LANBandwidth != "" {
			fmt.Fprintf(&b, " (LAN: %s)", a.LANBandwidth)
		}
	}

	return b.String()
}
