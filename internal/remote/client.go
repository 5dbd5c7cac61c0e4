package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v58/github"
	"github.com/shurcooL/githubv4"

	"github.com/qiniu/ghostsite/internal/trace"
)

var ErrBranchNotFound = errors.New("branch not found on GitHub")

// Commit is a published commit on the deploy branch
type Commit struct {
	SHA         string    `json:"sha"`
	Headline    string    `json:"headline"`
	CommittedAt time.Time `json:"committed_at"`
}

// Client reads the deploy branch back from GitHub: the branch head over REST and
// the recent history over GraphQL.
type Client struct {
	rest    *github.Client
	graphql *githubv4.Client
	repo    Repository
	branch  string
	timeout time.Duration
}

// Option configures a Client
type Option func(*clientOptions) error

type clientOptions struct {
	restBaseURL string
	graphqlURL  string
	timeout     time.Duration
}

// WithEndpoints points the client at a GitHub Enterprise server or a test double
func WithEndpoints(restBaseURL, graphqlURL string) Option {
	return func(o *clientOptions) error {
		o.restBaseURL = restBaseURL
		o.graphqlURL = graphqlURL
		return nil
	}
}

// WithTimeout bounds every GitHub call
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) error {
		o.timeout = d
		return nil
	}
}

// NewClient creates a client for branch of repo using an authenticated httpClient
func NewClient(httpClient *http.Client, repo Repository, branch string, opts ...Option) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	rest := github.NewClient(httpClient)
	gql := githubv4.NewClient(httpClient)
	if o.restBaseURL != "" {
		base := o.restBaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid REST base URL: %w", err)
		}
		rest.BaseURL = u
	}
	if o.graphqlURL != "" {
		gql = githubv4.NewEnterpriseClient(o.graphqlURL, httpClient)
	}

	return &Client{
		rest:    rest,
		graphql: gql,
		repo:    repo,
		branch:  branch,
		timeout: o.timeout,
	}, nil
}

// Repository returns the repository the client reads from
func (c *Client) Repository() Repository {
	return c.repo
}

// Branch returns the deploy branch the client reads from
func (c *Client) Branch() string {
	return c.branch
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// BranchHead returns the commit the deploy branch points at on GitHub
func (c *Client) BranchHead(ctx context.Context) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	ref, resp, err := c.rest.Git.GetRef(ctx, c.repo.Owner, c.repo.Name, "heads/"+c.branch)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s@%s", ErrBranchNotFound, c.repo, c.branch)
		}
		return "", fmt.Errorf("failed to get ref for %s@%s: %w", c.repo, c.branch, err)
	}
	sha := ref.GetObject().GetSHA()
	if sha == "" {
		return "", fmt.Errorf("%w: %s@%s has no target", ErrBranchNotFound, c.repo, c.branch)
	}
	return sha, nil
}

// Verify reports whether the remote branch head equals localSHA, along with the remote head
func (c *Client) Verify(ctx context.Context, localSHA string) (bool, string, error) {
	head, err := c.BranchHead(ctx)
	if err != nil {
		return false, "", err
	}
	return head == localSHA, head, nil
}

type historyQuery struct {
	Repository struct {
		Ref struct {
			Name   githubv4.String
			Target struct {
				Commit struct {
					History struct {
						Nodes []struct {
							Oid             githubv4.GitObjectID
							MessageHeadline githubv4.String
							CommittedDate   githubv4.DateTime
						}
					} `graphql:"history(first: $limit)"`
				} `graphql:"... on Commit"`
			}
		} `graphql:"ref(qualifiedName: $branch)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// History returns up to limit of the most recent commits on the deploy branch, newest first
func (c *Client) History(ctx context.Context, limit int) ([]Commit, error) {
	xl := trace.FromContext(ctx)
	if limit <= 0 {
		limit = 10
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var query historyQuery
	variables := map[string]interface{}{
		"owner":  githubv4.String(c.repo.Owner),
		"name":   githubv4.String(c.repo.Name),
		"branch": githubv4.String("refs/heads/" + c.branch),
		"limit":  githubv4.Int(limit),
	}
	if err := c.graphql.Query(ctx, &query, variables); err != nil {
		return nil, fmt.Errorf("failed to query history of %s@%s: %w", c.repo, c.branch, err)
	}
	if query.Repository.Ref.Name == "" {
		return nil, fmt.Errorf("%w: %s@%s", ErrBranchNotFound, c.repo, c.branch)
	}

	nodes := query.Repository.Ref.Target.Commit.History.Nodes
	commits := make([]Commit, 0, len(nodes))
	for _, node := range nodes {
		commits = append(commits, Commit{
			SHA:         string(node.Oid),
			Headline:    string(node.MessageHeadline),
			CommittedAt: node.CommittedDate.Time,
		})
	}
	xl.Debugf("Fetched %d commits from %s@%s", len(commits), c.repo, c.branch)
	return commits, nil
}
