package content

import (
	"fmt"
	"time"
)

// Kind identifies the wrapper markup used for a fragment
type Kind string

const (
	KindBlog Kind = "blog"
	KindArt  Kind = "art"
)

// TimestampLayout matches the ISO-8601 form browsers produce, milliseconds included
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Clock returns the current instant. Callers inject it so rendering stays deterministic in tests.
type Clock func() time.Time

// SystemClock is the wall clock
func SystemClock() time.Time {
	return time.Now()
}

// Entry is a single piece of content waiting to be rendered into a fragment
type Entry struct {
	Title     string
	Body      string
	Timestamp string
	ID        int64
}

// NewEntry builds an entry stamped by clock. An empty timestamp defaults to the clock's instant.
func NewEntry(clock Clock, title, body, timestamp string) Entry {
	now := clock()
	if timestamp == "" {
		timestamp = FormatTimestamp(now)
	}
	return Entry{
		Title:     title,
		Body:      body,
		Timestamp: timestamp,
		ID:        now.UnixMilli(),
	}
}

// FormatTimestamp formats t in UTC with millisecond precision
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Render turns an entry into a fragment of the given kind.
// Title and body are trusted raw markup and are interpolated without escaping.
func Render(kind Kind, entry Entry) string {
	switch kind {
	case KindBlog:
		return renderBlog(entry)
	case KindArt:
		return renderArt(entry)
	default:
		return ""
	}
}

func renderBlog(e Entry) string {
	return fmt.Sprintf(`
        <div class="ghost-art" style="border-left: 4px solid #00ff41;">
            <h2 style="color: #00aaff;">%s</h2>
            <div class="timestamp">[%s] - Entry #%d</div>
            <br>
            %s
        </div>`, e.Title, e.Timestamp, e.ID, e.Body)
}

// art bodies are usually ASCII art or poetry, so they go into <pre> flush-left
func renderArt(e Entry) string {
	return fmt.Sprintf(`
        <div class="ghost-art">
            <h3>%s</h3>
            <div class="timestamp">[%s]</div>
<pre>
%s
</pre>
        </div>`, e.Title, e.Timestamp, e.Body)
}
