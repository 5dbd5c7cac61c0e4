package publish

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrGitOperationFailed = errors.New("git operation failed")
	ErrRemoteURLNotFound  = errors.New("git remote URL not found")
	ErrEmptyCommitMessage = errors.New("commit message is empty")
)

// Error records which publish step failed and what git printed
type Error struct {
	Step   string // stage, commit, push, ...
	Dir    string // repository directory
	Output string // combined git output, trimmed
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("git %s failed in %s: %v", e.Step, e.Dir, e.Err)
	if e.Output != "" {
		msg += fmt.Sprintf(" (output: %s)", e.Output)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// GitError wraps err as a failure of step, tagging it with ErrGitOperationFailed
func GitError(step, dir string, output []byte, err error) error {
	return &Error{
		Step:   step,
		Dir:    dir,
		Output: strings.TrimSpace(string(output)),
		Err:    fmt.Errorf("%w: %w", ErrGitOperationFailed, err),
	}
}
