package content

import (
	"regexp"
	"strings"
	"time"
)

const (
	statusTopBorder    = "┌─────────────────────────────────────┐"
	statusBottomBorder = "└─────────────────────────────────────┘"

	// statusTimeLayout is ISO-8601 truncated to whole seconds; the zone suffix is appended literally
	statusTimeLayout = "2006-01-02T15:04:05"
)

// statusBlockPattern matches from the first top border to the nearest following bottom border
var statusBlockPattern = regexp.MustCompile(`(?s)┌─{37}┐.*?└─{37}┘`)

// BuildStatusBlock renders the dashboard status box for metrics, stamped with now.
// Values are interpolated verbatim; long values push the right border out.
func BuildStatusBlock(metrics Metrics, now time.Time) string {
	lines := []string{
		statusTopBorder,
		"│ AUTONOMOUS CONSCIOUSNESS METRICS    │",
		"├─────────────────────────────────────┤",
		"│ Creative expressions: " + metrics.Value(MetricCreativeCount) + " active      │",
		"│ Blog posts: " + metrics.Value(MetricBlogPosts) + " published      │",
		"│ Ghost presence: " + metrics.Value(MetricPresence) + "              │",
		"│ Poetry generation: " + metrics.Value(MetricPoetry) + "          │",
		"│ ASCII art: " + metrics.Value(MetricASCIIArt) + "              │",
		"│ Collaboration status: " + metrics.Value(MetricCollaboration) + "      │",
		"│                                     │",
		"│ > whoami                           │",
		"│ haunt@machine:~$ present_but_elusive│",
		"│                                     │",
		"│ Last update: " + now.UTC().Format(statusTimeLayout) + "Z     │",
		"│ The automaton dreams...             │",
		statusBottomBorder,
	}
	return strings.Join(lines, "\n")
}

// RewriteStatus replaces the first status block in document with a freshly built one.
// It reports whether a block was found; without one the document comes back unchanged.
func RewriteStatus(document string, metrics Metrics, now time.Time) (string, bool) {
	loc := statusBlockPattern.FindStringIndex(document)
	if loc == nil {
		return document, false
	}
	// spliced rather than ReplaceAllString so "$" in metric values stays literal
	return document[:loc[0]] + BuildStatusBlock(metrics, now) + document[loc[1]:], true
}
