package repository

import (
	"context"
	"errors"
	"fmt"
	"path"

	"go.uber.org/zap"

	"github.com/EOEPCA/open-science-catalog-backend/internal/platform"
	"github.com/EOEPCA/open-science-catalog-backend/internal/submission/model"
)

// branchAttempts bounds how many candidate names AllocateBranch tries: the
// base name itself plus numerically suffixed variants. The bound guards
// against an infinite loop if the already-exists signal is misreported.
const branchAttempts = 16

// Repository is the pull-request-backed data layer for submissions. The
// hosting platform is the only store: pending changes live in pull requests,
// confirmed items in the main branch tree.
type Repository struct {
	platform platform.Platform
	logger   *zap.SugaredLogger
}

// New creates a submission repository over the given platform.
func New(p platform.Platform, logger *zap.SugaredLogger) *Repository {
	return &Repository{
		platform: p,
		logger:   logger,
	}
}

// FileChange is a file creation or replacement carried by a submission.
type FileChange struct {
	Path    string
	Content []byte
}

// SubmitParams describes one submission. Create and Delete are both
// optional; a submission with neither produces an empty pull request.
type SubmitParams struct {
	BranchBase string
	Title      string
	Body       string
	Create     *FileChange
	// Delete is the path of a file to remove; empty means no delete.
	Delete string
	Labels []string
}

// AllocateBranch creates a branch off the main branch head, resolving name
// collisions with numeric suffixes: base, base-2, base-3, and so on. Only
// the already-exists signal triggers another attempt; any other failure
// propagates unchanged. Past the attempt budget the allocation fails with
// ErrBranchAllocationExhausted.
func (r *Repository) AllocateBranch(ctx context.Context, base string) (string, error) {
	head, err := r.platform.MainBranchHead(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve main branch head: %w", err)
	}

	for attempt := 1; attempt <= branchAttempts; attempt++ {
		name := base
		if attempt > 1 {
			name = fmt.Sprintf("%s-%d", base, attempt)
		}
		err := r.platform.CreateBranch(ctx, name, head)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, platform.ErrBranchExists) {
			return "", err
		}
	}
	return "", fmt.Errorf("allocate branch %q: %w", base, model.ErrBranchAllocationExhausted)
}

// PreviousToken looks up the optimistic-concurrency token of a path on the
// main branch. An absent parent directory, or a parent without an entry of
// that name, yields a new-file token.
func (r *Repository) PreviousToken(ctx context.Context, filePath string) (platform.ContentToken, error) {
	dir := path.Dir(filePath)
	name := path.Base(filePath)

	entries, err := r.platform.ListDirectory(ctx, r.platform.MainBranch(), dir)
	if errors.Is(err, platform.ErrNotFound) {
		return platform.NewFileToken(), nil
	}
	if err != nil {
		return platform.ContentToken{}, fmt.Errorf("locate %q: %w", filePath, err)
	}

	for _, entry := range entries {
		if entry.Name == name {
			return platform.ExistingToken(entry.SHA), nil
		}
	}
	return platform.NewFileToken(), nil
}

// Submit runs one submission end to end: allocate a branch off main, apply
// the file mutations with freshly looked-up concurrency tokens, open the
// pull request, and attach labels. There is no rollback: on failure after
// branch allocation the branch and any partial writes stay in place, to be
// cleaned up out of band.
func (r *Repository) Submit(ctx context.Context, params SubmitParams) (platform.CreatedPullRequest, error) {
	branch, err := r.AllocateBranch(ctx, params.BranchBase)
	if err != nil {
		return platform.CreatedPullRequest{}, err
	}

	if params.Create != nil {
		token, err := r.PreviousToken(ctx, params.Create.Path)
		if err != nil {
			return platform.CreatedPullRequest{}, err
		}
		if err := r.platform.WriteFile(ctx, branch, params.Create.Path, params.Create.Content, token, params.Title); err != nil {
			return platform.CreatedPullRequest{}, err
		}
	}

	if params.Delete != "" {
		token, err := r.PreviousToken(ctx, params.Delete)
		if err != nil {
			return platform.CreatedPullRequest{}, err
		}
		if token.IsNew() {
			return platform.CreatedPullRequest{}, fmt.Errorf("delete %q: %w", params.Delete, model.ErrItemNotFound)
		}
		if err := r.platform.DeleteFile(ctx, branch, params.Delete, token, params.Title); err != nil {
			return platform.CreatedPullRequest{}, err
		}
	}

	pr, err := r.platform.OpenPullRequest(ctx, branch, r.platform.MainBranch(), params.Title, params.Body)
	if err != nil {
		return platform.CreatedPullRequest{}, err
	}
	r.logger.Infow("Opened pull request",
		"number", pr.Number,
		"branch", branch,
		"title", params.Title,
	)

	if len(params.Labels) > 0 {
		if err := r.platform.SetLabels(ctx, pr.Number, params.Labels); err != nil {
			return platform.CreatedPullRequest{}, err
		}
	}
	return pr, nil
}

// Submissions reconstructs change descriptors from the platform's pull
// requests. Pull requests whose body does not decode are assumed to be
// unrelated to this workflow, logged, and skipped. A non-empty user narrows
// the result to that submitter's changes.
func (r *Repository) Submissions(ctx context.Context, user string) ([]model.ChangeDescriptor, error) {
	prs, err := r.platform.PullRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pull requests: %w", err)
	}

	descriptors := make([]model.ChangeDescriptor, 0, len(prs))
	for _, pr := range prs {
		descriptor, err := model.DecodeDescriptor(pr.Body)
		if err != nil {
			r.logger.Infow("Skipping pull request without change descriptor",
				"number", pr.Number,
				"error", err,
			)
			continue
		}
		if user != "" && descriptor.User != user {
			continue
		}
		createdAt := pr.CreatedAt
		descriptor.Status = model.StatusFromPullRequest(pr.State, pr.MergedAt)
		descriptor.URL = pr.HTMLURL
		descriptor.CreatedAt = &createdAt
		descriptors = append(descriptors, descriptor)
	}
	return descriptors, nil
}

// ConfirmedItems lists the file names in a main-branch directory. An absent
// directory is an empty catalog, not an error.
func (r *Repository) ConfirmedItems(ctx context.Context, dir string) ([]string, error) {
	entries, err := r.platform.ListDirectory(ctx, r.platform.MainBranch(), dir)
	if errors.Is(err, platform.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list confirmed items in %q: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	return names, nil
}

// ItemContent reads a confirmed item's raw content from the main branch.
func (r *Repository) ItemContent(ctx context.Context, filePath string) ([]byte, error) {
	content, err := r.platform.ReadFile(ctx, r.platform.MainBranch(), filePath)
	if errors.Is(err, platform.ErrNotFound) {
		return nil, fmt.Errorf("read %q: %w", filePath, model.ErrItemNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", filePath, err)
	}
	return content, nil
}
