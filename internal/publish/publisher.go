package publish

import (
	"context"
	"time"

	"github.com/qiniu/ghostsite/internal/trace"
)

const (
	DefaultRemote = "origin"
	DefaultBranch = "main"

	defaultMessagePrefix = "👻 Autonomous site update - "
	messageTimeLayout    = "2006-01-02T15:04:05.000Z"
)

// Confirmer reports the commit the remote branch currently points at
type Confirmer interface {
	BranchHead(ctx context.Context) (string, error)
}

// Publisher makes local changes visible by staging, committing and pushing them.
//
// The three steps are not atomic. A failure part way leaves the repository staged
// but uncommitted, or committed but unpushed, and nothing is rolled back.
type Publisher struct {
	git       GitService
	remote    string
	branch    string
	now       func() time.Time
	confirmer Confirmer
}

// Option configures a Publisher
type Option func(*Publisher)

// WithTarget overrides the remote and branch pushed to
func WithTarget(remote, branch string) Option {
	return func(p *Publisher) {
		if remote != "" {
			p.remote = remote
		}
		if branch != "" {
			p.branch = branch
		}
	}
}

// WithClock sets the clock used for default commit messages
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

// WithConfirmer enables a post-push check against the remote branch head
func WithConfirmer(c Confirmer) Option {
	return func(p *Publisher) {
		p.confirmer = c
	}
}

// NewPublisher creates a publisher pushing to origin/main unless configured otherwise
func NewPublisher(git GitService, opts ...Option) *Publisher {
	p := &Publisher{
		git:    git,
		remote: DefaultRemote,
		branch: DefaultBranch,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DefaultMessage is the commit message used when the caller supplies none
func DefaultMessage(now time.Time) string {
	return defaultMessagePrefix + now.UTC().Format(messageTimeLayout)
}

// Publish stages everything, commits with message and pushes. It reports success as a
// boolean; the cause of a failure is only logged.
func (p *Publisher) Publish(ctx context.Context, message string) bool {
	xl := trace.FromContext(ctx)

	if message == "" {
		message = DefaultMessage(p.now())
	}

	if err := p.run(ctx, message); err != nil {
		xl.Errorf("❌ Deployment failed: %v", err)
		return false
	}

	xl.Infof("🚀 Site deployed successfully!")
	p.confirm(ctx)
	return true
}

func (p *Publisher) run(ctx context.Context, message string) error {
	xl := trace.FromContext(ctx)

	if err := p.git.StageAll(ctx); err != nil {
		return err
	}
	if err := p.git.Commit(ctx, message); err != nil {
		return err
	}
	xl.Debugf("Committed: %s", message)

	if err := p.git.Push(ctx, p.remote, p.branch); err != nil {
		return err
	}
	xl.Debugf("Pushed to %s/%s", p.remote, p.branch)
	return nil
}

// confirm compares local HEAD with the remote branch head. Mismatches are only logged.
func (p *Publisher) confirm(ctx context.Context) {
	if p.confirmer == nil {
		return
	}
	xl := trace.FromContext(ctx)

	local, err := p.git.HeadCommit(ctx)
	if err != nil {
		xl.Warnf("Failed to read local HEAD for confirmation: %v", err)
		return
	}
	remote, err := p.confirmer.BranchHead(ctx)
	if err != nil {
		xl.Warnf("Failed to read remote branch head: %v", err)
		return
	}
	if local != remote {
		xl.Warnf("Remote %s/%s is at %s, local HEAD is %s", p.remote, p.branch, remote, local)
		return
	}
	xl.Infof("Remote %s/%s confirmed at %s", p.remote, p.branch, local)
}
