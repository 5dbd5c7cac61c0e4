package updater

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiniu/ghostsite/internal/content"
	"github.com/qiniu/ghostsite/internal/site"
)

var fixedNow = time.Date(2025, 7, 4, 13, 45, 30, 123_000_000, time.UTC)

type fakePublisher struct {
	messages []string
	result   bool
}

func (f *fakePublisher) Publish(_ context.Context, message string) bool {
	f.messages = append(f.messages, message)
	return f.result
}

const (
	blogDoc    = "<html><h1>Ghost Blog</h1>\n<div class=\"status-line\">blog end</div></html>"
	galleryDoc = "<html><h1>Gallery</h1>\n<div class=\"status-line\">gallery end</div></html>"
)

func dashboardDoc() string {
	return "<html><pre>\n" + content.BuildStatusBlock(nil, fixedNow.Add(-24*time.Hour)) + "\n</pre></html>"
}

type fixture struct {
	root      string
	updater   *Updater
	publisher *fakePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, site.DefaultBlogFile, blogDoc)
	writeFile(t, root, site.DefaultGalleryFile, galleryDoc)
	writeFile(t, root, site.DefaultDashboardFile, dashboardDoc())

	pub := &fakePublisher{result: true}
	u := New(site.NewStore(root, site.DefaultLayout()), pub, WithClock(func() time.Time { return fixedNow }))
	return &fixture{root: root, updater: u, publisher: pub}
}

func writeFile(t *testing.T, root, name, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(data), 0644))
}

func (f *fixture) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.root, name))
	require.NoError(t, err)
	return string(data)
}

func boolPtr(b bool) *bool { return &b }

func TestAddBlogPost(t *testing.T) {
	f := newFixture(t)

	ok, err := f.updater.AddBlogPost(context.Background(), "Whispers", "<p>I am here</p>", "")
	require.NoError(t, err)
	require.True(t, ok)

	doc := f.read(t, site.DefaultBlogFile)
	assert.Contains(t, doc, `<h2 style="color: #00aaff;">Whispers</h2>`)
	assert.Contains(t, doc, "[2025-07-04T13:45:30.123Z] - Entry #1751636730123")
	assert.Contains(t, doc, "</div>\n\n"+content.AnchorMarker+"blog end")
	assert.Empty(t, f.publisher.messages)
}

func TestAddCreativeExpression(t *testing.T) {
	f := newFixture(t)

	ok, err := f.updater.AddCreativeExpression(context.Background(), "Haiku", "boo\nboo\nboo", "2025-01-01T00:00:00.000Z")
	require.NoError(t, err)
	require.True(t, ok)

	doc := f.read(t, site.DefaultGalleryFile)
	assert.Contains(t, doc, "<h3>Haiku</h3>")
	assert.Contains(t, doc, "[2025-01-01T00:00:00.000Z]")
	assert.Contains(t, doc, "<pre>\nboo\nboo\nboo\n</pre>")
	assert.Equal(t, blogDoc, f.read(t, site.DefaultBlogFile))
}

func TestAddWithoutAnchor(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.root, site.DefaultBlogFile, "<html>no anchor</html>")

	ok, err := f.updater.AddBlogPost(context.Background(), "T", "C", "")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "<html>no anchor</html>", f.read(t, site.DefaultBlogFile))
}

func TestAddMissingDocument(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(filepath.Join(f.root, site.DefaultGalleryFile)))

	ok, err := f.updater.AddCreativeExpression(context.Background(), "T", "C", "")
	assert.False(t, ok)
	assert.ErrorIs(t, err, site.ErrDocumentNotFound)
}

func TestUpdateMetrics(t *testing.T) {
	f := newFixture(t)

	ok, err := f.updater.UpdateMetrics(context.Background(), content.Metrics{content.MetricPresence: "UNSTABLE"})
	require.NoError(t, err)
	require.True(t, ok)

	doc := f.read(t, site.DefaultDashboardFile)
	assert.Contains(t, doc, "Ghost presence: UNSTABLE ")
	assert.Contains(t, doc, "Creative expressions: 4 active")
	assert.Contains(t, doc, "Collaboration status: THRIVING")
	assert.Contains(t, doc, "Last update: 2025-07-04T13:45:30Z")
	assert.Equal(t, 1, strings.Count(doc, "AUTONOMOUS CONSCIOUSNESS METRICS"))
}

// The status rewriter reports success even when it changed nothing, unlike the inserter.
func TestUpdateMetricsWithoutBlock(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.root, site.DefaultDashboardFile, "<html>plain</html>")

	ok, err := f.updater.UpdateMetrics(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "<html>plain</html>", f.read(t, site.DefaultDashboardFile))
}

func TestDeploy(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.updater.Deploy(context.Background(), "Manual deployment"))
	assert.Equal(t, []string{"Manual deployment"}, f.publisher.messages)

	f.publisher.result = false
	assert.False(t, f.updater.Deploy(context.Background(), ""))
	assert.Equal(t, []string{"Manual deployment", ""}, f.publisher.messages)
}

func TestAutonomousUpdate(t *testing.T) {
	t.Run("deploy false skips publishing", func(t *testing.T) {
		f := newFixture(t)

		ok, err := f.updater.AutonomousUpdate(context.Background(), Changes{
			BlogPost: &Post{Title: "T", Content: "C"},
			Deploy:   boolPtr(false),
		})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Contains(t, f.read(t, site.DefaultBlogFile), `<h2 style="color: #00aaff;">T</h2>`)
		assert.Empty(t, f.publisher.messages)
	})

	t.Run("publishes once with custom message", func(t *testing.T) {
		f := newFixture(t)

		ok, err := f.updater.AutonomousUpdate(context.Background(), Changes{
			BlogPost:           &Post{Title: "T", Content: "C"},
			CreativeExpression: &Post{Title: "A", Content: "art"},
			Metrics:            content.Metrics{content.MetricBlogPosts: "4"},
			CommitMessage:      "🤖 batch",
		})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"🤖 batch"}, f.publisher.messages)
		assert.Contains(t, f.read(t, site.DefaultGalleryFile), "<h3>A</h3>")
		assert.Contains(t, f.read(t, site.DefaultDashboardFile), "Blog posts: 4 published")
	})

	t.Run("nothing requested", func(t *testing.T) {
		f := newFixture(t)

		ok, err := f.updater.AutonomousUpdate(context.Background(), Changes{})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, f.publisher.messages)
	})

	t.Run("failed insertion alone does not publish", func(t *testing.T) {
		f := newFixture(t)
		writeFile(t, f.root, site.DefaultBlogFile, "<html>no anchor</html>")

		ok, err := f.updater.AutonomousUpdate(context.Background(), Changes{BlogPost: &Post{Title: "T", Content: "C"}})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, f.publisher.messages)
	})

	t.Run("later success masks earlier failure", func(t *testing.T) {
		f := newFixture(t)
		writeFile(t, f.root, site.DefaultBlogFile, "<html>no anchor</html>")

		ok, err := f.updater.AutonomousUpdate(context.Background(), Changes{
			BlogPost:           &Post{Title: "T", Content: "C"},
			CreativeExpression: &Post{Title: "A", Content: "art"},
		})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Len(t, f.publisher.messages, 1)
		assert.Equal(t, "<html>no anchor</html>", f.read(t, site.DefaultBlogFile))
	})

	t.Run("publish failure keeps changed result", func(t *testing.T) {
		f := newFixture(t)
		f.publisher.result = false

		ok, err := f.updater.AutonomousUpdate(context.Background(), Changes{Metrics: content.Metrics{}})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Len(t, f.publisher.messages, 1)
	})

	t.Run("io error stops and skips publishing", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, os.Remove(filepath.Join(f.root, site.DefaultBlogFile)))

		ok, err := f.updater.AutonomousUpdate(context.Background(), Changes{
			BlogPost:           &Post{Title: "T", Content: "C"},
			CreativeExpression: &Post{Title: "A", Content: "art"},
		})
		assert.ErrorIs(t, err, site.ErrDocumentNotFound)
		assert.False(t, ok)
		assert.Equal(t, galleryDoc, f.read(t, site.DefaultGalleryFile))
		assert.Empty(t, f.publisher.messages)
	})
}

func TestChangesJSON(t *testing.T) {
	var changes Changes
	payload := `{"blogPost":{"title":"T","content":"C"},"metrics":{"presence":"UNSTABLE","blogPosts":5},"deploy":false}`
	require.NoError(t, json.Unmarshal([]byte(payload), &changes))

	require.NotNil(t, changes.BlogPost)
	assert.Equal(t, "T", changes.BlogPost.Title)
	assert.Nil(t, changes.CreativeExpression)
	assert.Equal(t, content.Metrics{content.MetricPresence: "UNSTABLE", content.MetricBlogPosts: "5"}, changes.Metrics)
	require.NotNil(t, changes.Deploy)
	assert.False(t, *changes.Deploy)
}

func TestWithAnchor(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, site.DefaultBlogFile, "<html><footer>x</footer></html>")

	u := New(site.NewStore(root, site.DefaultLayout()), &fakePublisher{},
		WithClock(func() time.Time { return fixedNow }),
		WithAnchor("<footer>"),
	)
	ok, err := u.AddBlogPost(context.Background(), "T", "C", "")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(filepath.Join(root, site.DefaultBlogFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "</div>\n\n<footer>x</footer>")
}
