package monitor

import (
	"fmt"
	"strconv"
	"time"

	"github.com/user/streamwarden/internal/activity"
)

// numberEmojis are the position markers for streams 1..10. The marker for
// stream N doubles as the reaction a user sends to terminate it.
var numberEmojis = [...]string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣", "🔟"}

// NumberEmoji returns the position marker for a 1-based stream index.
func NumberEmoji(n int) string {
	if n >= 1 && n <= len(numberEmojis) {
		return numberEmojis[n-1]
	}
	return strconv.Itoa(n) + "."
}

// StreamInfo is one render-ready entry in a snapshot. Index matches the
// session's key in the index table at the time of the poll.
type StreamInfo struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Player   string `json:"player"`
	Details  string `json:"details"`
	Progress string `json:"progress"`
}

// Body joins the player, details, and progress lines.
func (s StreamInfo) Body() string {
	return s.Player + "\n" + s.Details + "\n" + s.Progress
}

// Snapshot is the outcome of one poll: either an ordered view of the
// active sessions, or an offline marker. It is immutable once built.
type Snapshot struct {
	Online         bool         `json:"online"`
	ServerOnline   bool         `json:"server_online"`
	Overview       string       `json:"overview"`
	Streams        []StreamInfo `json:"streams"`
	StreamCount    int          `json:"stream_count"`
	TranscodeCount int          `json:"transcode_count"`
	At             time.Time    `json:"at"`
}

// Message renders the snapshot as a plain-text report, one stream per
// block, with the termination hint when anything is active.
func (s *Snapshot) Message() string {
	if !s.Online {
		return "Connection lost."
	}
	if len(s.Streams) == 0 {
		return "No current activity."
	}
	out := s.Overview + "\n"
	for _, stream := range s.Streams {
		out += stream.Title + "\n" + stream.Body() + "\n"
	}
	out += "\nTo stop a stream, send /stop with the stream number."
	return out
}

// streamTitle composes the headline for one stream entry.
func streamTitle(index int, s activity.Session) string {
	return fmt.Sprintf("%s | %s %s: %s %s", NumberEmoji(index), s.StatusIcon, s.Username, s.TypeIcon, s.Title)
}
