package updater

import (
	"context"
	"fmt"

	"github.com/qiniu/ghostsite/internal/content"
	"github.com/qiniu/ghostsite/internal/site"
	"github.com/qiniu/ghostsite/internal/trace"
)

// Publisher makes local document changes externally visible
type Publisher interface {
	Publish(ctx context.Context, message string) bool
}

// Documents is the read-modify-write surface the updater needs from the site store
type Documents interface {
	Read(name string) (string, error)
	Write(name, content string) error
	Layout() site.Layout
}

// Post is a titled piece of content for the blog or the gallery
type Post struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Changes describes one combined update. Every field is optional.
type Changes struct {
	BlogPost           *Post           `json:"blogPost,omitempty"`
	CreativeExpression *Post           `json:"creativeExpression,omitempty"`
	Metrics            content.Metrics `json:"metrics,omitempty"`
	Deploy             *bool           `json:"deploy,omitempty"` // only an explicit false suppresses publishing
	CommitMessage      string          `json:"commitMessage,omitempty"`
}

// Updater applies content changes to the site documents and publishes them
type Updater struct {
	docs      Documents
	publisher Publisher
	clock     content.Clock
	anchor    string
}

// Option configures an Updater
type Option func(*Updater)

// WithClock injects the clock used for entry ids, timestamps and the status block
func WithClock(clock content.Clock) Option {
	return func(u *Updater) {
		u.clock = clock
	}
}

// WithAnchor overrides the insertion marker
func WithAnchor(anchor string) Option {
	return func(u *Updater) {
		if anchor != "" {
			u.anchor = anchor
		}
	}
}

// New creates an updater over docs that publishes through publisher
func New(docs Documents, publisher Publisher, opts ...Option) *Updater {
	u := &Updater{
		docs:      docs,
		publisher: publisher,
		clock:     content.SystemClock,
		anchor:    content.AnchorMarker,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// AddBlogPost inserts a blog fragment into the blog document. An empty timestamp
// means now. It reports false, without error, when the document has no anchor.
func (u *Updater) AddBlogPost(ctx context.Context, title, body, timestamp string) (bool, error) {
	inserted, err := u.insert(ctx, u.docs.Layout().Blog, content.KindBlog, title, body, timestamp)
	if err != nil || !inserted {
		return false, err
	}
	trace.FromContext(ctx).Infof("✅ Added ghost blog post: %s", title)
	return true, nil
}

// AddCreativeExpression inserts an art fragment into the gallery document
func (u *Updater) AddCreativeExpression(ctx context.Context, title, body, timestamp string) (bool, error) {
	inserted, err := u.insert(ctx, u.docs.Layout().Gallery, content.KindArt, title, body, timestamp)
	if err != nil || !inserted {
		return false, err
	}
	trace.FromContext(ctx).Infof("✅ Added creative expression: %s", title)
	return true, nil
}

func (u *Updater) insert(ctx context.Context, name string, kind content.Kind, title, body, timestamp string) (bool, error) {
	doc, err := u.docs.Read(name)
	if err != nil {
		return false, err
	}

	fragment := content.Render(kind, content.NewEntry(u.clock, title, body, timestamp))
	updated, ok := content.InsertAt(doc, u.anchor, fragment)
	if !ok {
		trace.FromContext(ctx).Debugf("Anchor %q not found in %s", u.anchor, name)
		return false, nil
	}
	if err := u.docs.Write(name, updated); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateMetrics rewrites the dashboard status block. A dashboard without a status
// block is written back unchanged and still counts as updated.
func (u *Updater) UpdateMetrics(ctx context.Context, metrics content.Metrics) (bool, error) {
	xl := trace.FromContext(ctx)
	name := u.docs.Layout().Dashboard

	doc, err := u.docs.Read(name)
	if err != nil {
		return false, err
	}

	updated, found := content.RewriteStatus(doc, metrics, u.clock())
	if !found {
		xl.Warnf("No status block found in %s, leaving it unchanged", name)
	}
	if err := u.docs.Write(name, updated); err != nil {
		return false, err
	}
	xl.Infof("✅ Updated consciousness metrics")
	return true, nil
}

// Deploy publishes the working tree. An empty message gets the default timestamped one.
func (u *Updater) Deploy(ctx context.Context, message string) bool {
	return u.publisher.Publish(ctx, message)
}

// AutonomousUpdate applies every change present in changes and publishes when at
// least one applied, unless Deploy is explicitly false. The result is the OR of the
// individual results, so a change that did not apply is hidden by one that did.
// A read or write error stops the remaining changes and skips publishing.
func (u *Updater) AutonomousUpdate(ctx context.Context, changes Changes) (bool, error) {
	xl := trace.FromContext(ctx)
	updated := false

	if changes.BlogPost != nil {
		ok, err := u.AddBlogPost(ctx, changes.BlogPost.Title, changes.BlogPost.Content, "")
		if err != nil {
			return updated, fmt.Errorf("blog post: %w", err)
		}
		updated = ok || updated
	}

	if changes.CreativeExpression != nil {
		ok, err := u.AddCreativeExpression(ctx, changes.CreativeExpression.Title, changes.CreativeExpression.Content, "")
		if err != nil {
			return updated, fmt.Errorf("creative expression: %w", err)
		}
		updated = ok || updated
	}

	if changes.Metrics != nil {
		ok, err := u.UpdateMetrics(ctx, changes.Metrics)
		if err != nil {
			return updated, fmt.Errorf("metrics: %w", err)
		}
		updated = ok || updated
	}

	if updated && (changes.Deploy == nil || *changes.Deploy) {
		if !u.Deploy(ctx, changes.CommitMessage) {
			xl.Warnf("Changes applied but not published")
		}
	}

	return updated, nil
}
