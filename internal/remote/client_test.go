package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiniu/ghostsite/internal/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/repos/ghost/haunted/git/ref/heads/main", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ref":"refs/heads/main","object":{"sha":"abc123","type":"commit"}}`)
	})
	mux.HandleFunc("/repos/ghost/haunted/git/ref/heads/gone", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message":"Not Found"}`)
	})
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query     string                 `json:"query"`
			Variables map[string]interface{} `json:"variables"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Contains(t, body.Query, "history(first: $limit)")

		w.Header().Set("Content-Type", "application/json")
		if body.Variables["branch"] != "refs/heads/main" {
			io.WriteString(w, `{"data":{"repository":{"ref":null}}}`)
			return
		}
		assert.Equal(t, "ghost", body.Variables["owner"])
		assert.Equal(t, "haunted", body.Variables["name"])
		assert.EqualValues(t, 2, body.Variables["limit"])
		io.WriteString(w, `{"data":{"repository":{"ref":{"name":"main","target":{"history":{"nodes":[
			{"oid":"abc123","messageHeadline":"📖 New blog post: Whispers","committedDate":"2025-07-04T13:45:30Z"},
			{"oid":"def456","messageHeadline":"📊 Updated consciousness metrics","committedDate":"2025-07-03T09:00:00Z"}
		]}}}}}}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, server *httptest.Server, branch string) *Client {
	t.Helper()
	client, err := NewClient(server.Client(), Repository{Owner: "ghost", Name: "haunted"}, branch,
		WithEndpoints(server.URL, server.URL+"/graphql"),
		WithTimeout(5*time.Second),
	)
	require.NoError(t, err)
	return client
}

func TestBranchHead(t *testing.T) {
	server := newTestServer(t)

	head, err := newTestClient(t, server, "main").BranchHead(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", head)

	_, err = newTestClient(t, server, "gone").BranchHead(context.Background())
	assert.ErrorIs(t, err, ErrBranchNotFound)
}

func TestVerify(t *testing.T) {
	client := newTestClient(t, newTestServer(t), "main")

	ok, head, err := client.Verify(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", head)

	ok, _, err = client.Verify(context.Background(), "fff000")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHistory(t *testing.T) {
	server := newTestServer(t)

	commits, err := newTestClient(t, server, "main").History(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "abc123", commits[0].SHA)
	assert.Equal(t, "📖 New blog post: Whispers", commits[0].Headline)
	assert.Equal(t, time.Date(2025, 7, 4, 13, 45, 30, 0, time.UTC), commits[0].CommittedAt.UTC())

	_, err = newTestClient(t, server, "gone").History(context.Background(), 2)
	assert.ErrorIs(t, err, ErrBranchNotFound)
}

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Repository
		wantErr  bool
	}{
		{name: "https", input: "https://github.com/ghost/haunted.git", expected: Repository{"ghost", "haunted"}},
		{name: "https without suffix", input: "https://github.com/ghost/haunted", expected: Repository{"ghost", "haunted"}},
		{name: "scp-like", input: "git@github.com:ghost/haunted.git", expected: Repository{"ghost", "haunted"}},
		{name: "ssh", input: "ssh://git@github.com/ghost/haunted.git", expected: Repository{"ghost", "haunted"}},
		{name: "other host", input: "https://gitlab.com/ghost/haunted.git", wantErr: true},
		{name: "missing name", input: "https://github.com/ghost", wantErr: true},
		{name: "local path", input: "/srv/git/haunted.git", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := ParseRemoteURL(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRepository)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, repo)
			assert.Equal(t, "ghost/haunted", repo.String())
		})
	}
}

func TestNewHTTPClient(t *testing.T) {
	t.Run("token", func(t *testing.T) {
		cfg := &config.Config{GitHub: config.GitHubConfig{Token: "ghp_test"}}
		client, err := NewHTTPClient(context.Background(), cfg)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := NewHTTPClient(context.Background(), &config.Config{})
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("broken app key falls back to token", func(t *testing.T) {
		cfg := &config.Config{GitHub: config.GitHubConfig{
			Token: "ghp_test",
			App:   config.GitHubAppConfig{AppID: 1, InstallationID: 2, PrivateKey: "not a pem"},
		}}
		client, err := NewHTTPClient(context.Background(), cfg)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}
