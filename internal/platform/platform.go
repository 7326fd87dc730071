// Package platform defines the operations the submission workflow consumes
// from the remote repository-hosting platform. The platform stores the main
// repository, branches and pull requests; implementations translate these
// operations onto a concrete hosting API.
package platform

import (
	"context"
	"time"
)

// TreeEntry is one entry of a directory listing on the platform.
type TreeEntry struct {
	// Name is the entry's name within the directory (final path segment).
	Name string
	// SHA is the content-identity hash of the entry's current bytes.
	SHA string
}

// CreatedPullRequest identifies a pull request right after creation.
type CreatedPullRequest struct {
	Number int
	URL    string
}

// RemotePullRequest is the platform's view of a pull request, in the shape
// needed to reconstruct a submission from it.
type RemotePullRequest struct {
	Number    int
	Body      string
	HTMLURL   string
	State     string
	CreatedAt time.Time
	// MergedAt is nil while the pull request is open or was closed unmerged.
	MergedAt *time.Time
}

// Platform is the port to the repository-hosting service. All calls are
// blocking request/response against the remote platform and honor the
// caller's context deadline.
type Platform interface {
	// MainBranch returns the name of the branch submissions merge into.
	MainBranch() string

	// MainBranchHead returns the commit id at the tip of the main branch.
	MainBranchHead(ctx context.Context) (string, error)

	// CreateBranch creates a branch pointing at the given commit.
	// Returns ErrBranchExists when the name is already taken; every other
	// failure propagates unchanged.
	CreateBranch(ctx context.Context, name, fromSHA string) error

	// ListDirectory returns the entries of a directory on the given ref.
	// Returns ErrNotFound when the directory does not exist there.
	ListDirectory(ctx context.Context, ref, dir string) ([]TreeEntry, error)

	// ReadFile returns the raw bytes of a file on the given ref.
	// Returns ErrNotFound when no file exists at the path.
	ReadFile(ctx context.Context, ref, path string) ([]byte, error)

	// WriteFile creates or updates a file on a branch. The expected token
	// decides the mode: a new-file token creates, an existing token performs
	// a conditional update. A stale token yields ErrConflict.
	WriteFile(ctx context.Context, branch, path string, content []byte, expected ContentToken, message string) error

	// DeleteFile conditionally deletes a file on a branch. The expected
	// token must identify existing content; a stale token yields ErrConflict.
	DeleteFile(ctx context.Context, branch, path string, expected ContentToken, message string) error

	// OpenPullRequest opens a pull request from head into base.
	OpenPullRequest(ctx context.Context, head, base, title, body string) (CreatedPullRequest, error)

	// SetLabels replaces the labels of a pull request.
	SetLabels(ctx context.Context, number int, labels []string) error

	// PullRequests returns all pull requests, open and closed.
	PullRequests(ctx context.Context) ([]RemotePullRequest, error)
}
