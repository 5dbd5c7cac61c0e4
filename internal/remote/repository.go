package remote

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrInvalidRepository = errors.New("invalid GitHub repository")

// Repository identifies a GitHub repository
type Repository struct {
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepository parses "owner/name"
func ParseRepository(s string) (Repository, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repository{}, fmt.Errorf("%w: %q", ErrInvalidRepository, s)
	}
	return Repository{Owner: parts[0], Name: strings.TrimSuffix(parts[1], ".git")}, nil
}

// ParseRemoteURL extracts owner and name from a GitHub remote URL. It accepts
// https and ssh URLs as well as the scp-like git@github.com:owner/name.git form.
func ParseRemoteURL(remoteURL string) (Repository, error) {
	remoteURL = strings.TrimSpace(remoteURL)

	// git@github.com:owner/name.git
	if !strings.Contains(remoteURL, "://") {
		host, path, ok := strings.Cut(remoteURL, ":")
		if !ok || !strings.HasSuffix(host, "github.com") {
			return Repository{}, fmt.Errorf("%w: %q", ErrInvalidRepository, remoteURL)
		}
		return ParseRepository(path)
	}

	u, err := url.Parse(remoteURL)
	if err != nil {
		return Repository{}, fmt.Errorf("%w: %v", ErrInvalidRepository, err)
	}
	if u.Hostname() != "github.com" {
		return Repository{}, fmt.Errorf("%w: host %q is not github.com", ErrInvalidRepository, u.Hostname())
	}
	return ParseRepository(strings.Trim(u.Path, "/"))
}
