package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v48/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/EOEPCA/open-science-catalog-backend/pkg/retry"
)

// GitHub implements Platform against the GitHub REST API.
type GitHub struct {
	client     *github.Client
	owner      string
	repo       string
	mainBranch string
	timeout    time.Duration
	retryCfg   retry.Config
	logger     *zap.SugaredLogger
}

// NewGitHub creates a GitHub platform from environment configuration.
func NewGitHub(logger *zap.SugaredLogger) (*GitHub, error) {
	return NewGitHubWithConfig(LoadConfigFromEnv(), logger)
}

// NewGitHubWithConfig creates a GitHub platform from the given configuration.
func NewGitHubWithConfig(cfg Config, logger *zap.SugaredLogger) (*GitHub, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid platform config: %w", err)
	}
	owner, repo, err := cfg.SplitRepo()
	if err != nil {
		return nil, err
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpClient := oauth2.NewClient(context.Background(), tokenSource)
	client := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GITHUB_BASE_URL: %w", err)
		}
		client.BaseURL = base
	}

	return &GitHub{
		client:     client,
		owner:      owner,
		repo:       repo,
		mainBranch: cfg.MainBranch,
		timeout:    cfg.RequestTimeout,
		retryCfg:   cfg.Retry,
		logger:     logger,
	}, nil
}

// Verify checks that the configured repository is reachable, retrying
// transient failures. Meant to be called once at startup.
func (g *GitHub) Verify(ctx context.Context) error {
	repo, err := retry.DoWithResult(ctx, g.retryCfg, func() (*github.Repository, error) {
		callCtx, cancel := g.callContext(ctx)
		defer cancel()
		repo, _, err := g.client.Repositories.Get(callCtx, g.owner, g.repo)
		return repo, err
	})
	if err != nil {
		return fmt.Errorf("verify repository %s/%s: %w", g.owner, g.repo, err)
	}
	g.logger.Infow("Connected to repository",
		"repo", repo.GetFullName(),
		"default_branch", repo.GetDefaultBranch(),
	)
	return nil
}

// MainBranch returns the branch submissions merge into.
func (g *GitHub) MainBranch() string {
	return g.mainBranch
}

// MainBranchHead returns the commit SHA at the tip of the main branch.
func (g *GitHub) MainBranchHead(ctx context.Context) (string, error) {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	branch, _, err := g.client.Repositories.GetBranch(callCtx, g.owner, g.repo, g.mainBranch, true)
	if err != nil {
		return "", g.wrapError("resolve branch", g.mainBranch, err)
	}
	return branch.GetCommit().GetSHA(), nil
}

// CreateBranch creates a new branch pointing at fromSHA. Returns
// ErrBranchExists when the name is already taken.
func (g *GitHub) CreateBranch(ctx context.Context, name, fromSHA string) error {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	ref := &github.Reference{
		Ref:    github.String("refs/heads/" + name),
		Object: &github.GitObject{SHA: github.String(fromSHA)},
	}
	_, _, err := g.client.Git.CreateRef(callCtx, g.owner, g.repo, ref)
	if err != nil {
		// GitHub reports an already-taken ref name as 422.
		if statusOf(err) == http.StatusUnprocessableEntity {
			return fmt.Errorf("create branch %q: %w", name, ErrBranchExists)
		}
		return g.wrapError("create branch", name, err)
	}
	return nil
}

// ListDirectory lists the immediate entries of a directory at the given ref.
func (g *GitHub) ListDirectory(ctx context.Context, ref, dir string) ([]TreeEntry, error) {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	opts := &github.RepositoryContentGetOptions{Ref: ref}
	file, listing, _, err := g.client.Repositories.GetContents(callCtx, g.owner, g.repo, dir, opts)
	if err != nil {
		return nil, g.wrapError("list directory", dir, err)
	}
	if file != nil {
		return nil, fmt.Errorf("list directory %q: path is a file: %w", dir, ErrNotFound)
	}

	entries := make([]TreeEntry, 0, len(listing))
	for _, entry := range listing {
		entries = append(entries, TreeEntry{Name: entry.GetName(), SHA: entry.GetSHA()})
	}
	return entries, nil
}

// ReadFile returns the decoded content of a file at the given ref.
func (g *GitHub) ReadFile(ctx context.Context, ref, path string) ([]byte, error) {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	opts := &github.RepositoryContentGetOptions{Ref: ref}
	file, _, _, err := g.client.Repositories.GetContents(callCtx, g.owner, g.repo, path, opts)
	if err != nil {
		return nil, g.wrapError("read file", path, err)
	}
	if file == nil {
		return nil, fmt.Errorf("read file %q: path is a directory: %w", path, ErrNotFound)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("read file %q: decode content: %w", path, err)
	}
	return []byte(content), nil
}

// WriteFile creates or updates a file on a branch. The expected token decides
// which: a new-file token issues a create, an existing token issues an update
// pinned to that blob SHA. A stale token surfaces as ErrConflict.
func (g *GitHub) WriteFile(ctx context.Context, branch, path string, content []byte, expected ContentToken, message string) error {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		Branch:  github.String(branch),
	}
	var err error
	if expected.IsNew() {
		_, _, err = g.client.Repositories.CreateFile(callCtx, g.owner, g.repo, path, opts)
	} else {
		opts.SHA = github.String(expected.SHA())
		_, _, err = g.client.Repositories.UpdateFile(callCtx, g.owner, g.repo, path, opts)
	}
	if err != nil {
		if status := statusOf(err); status == http.StatusConflict || status == http.StatusUnprocessableEntity {
			return fmt.Errorf("write file %q: %w", path, ErrConflict)
		}
		return g.wrapError("write file", path, err)
	}
	return nil
}

// DeleteFile removes a file from a branch, pinned to the blob SHA in the
// expected token. A stale token surfaces as ErrConflict.
func (g *GitHub) DeleteFile(ctx context.Context, branch, path string, expected ContentToken, message string) error {
	if expected.IsNew() {
		return fmt.Errorf("delete file %q: %w", path, ErrNotFound)
	}

	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		SHA:     github.String(expected.SHA()),
		Branch:  github.String(branch),
	}
	_, _, err := g.client.Repositories.DeleteFile(callCtx, g.owner, g.repo, path, opts)
	if err != nil {
		if status := statusOf(err); status == http.StatusConflict || status == http.StatusUnprocessableEntity {
			return fmt.Errorf("delete file %q: %w", path, ErrConflict)
		}
		return g.wrapError("delete file", path, err)
	}
	return nil
}

// OpenPullRequest opens a pull request from head into base.
func (g *GitHub) OpenPullRequest(ctx context.Context, head, base, title, body string) (CreatedPullRequest, error) {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	newPR := &github.NewPullRequest{
		Title:               github.String(title),
		Head:                github.String(head),
		Base:                github.String(base),
		Body:                github.String(body),
		MaintainerCanModify: github.Bool(true),
	}
	pr, _, err := g.client.PullRequests.Create(callCtx, g.owner, g.repo, newPR)
	if err != nil {
		return CreatedPullRequest{}, g.wrapError("open pull request", head, err)
	}
	return CreatedPullRequest{Number: pr.GetNumber(), URL: pr.GetHTMLURL()}, nil
}

// SetLabels replaces the labels on a pull request.
func (g *GitHub) SetLabels(ctx context.Context, number int, labels []string) error {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	_, _, err := g.client.Issues.ReplaceLabelsForIssue(callCtx, g.owner, g.repo, number, labels)
	if err != nil {
		return g.wrapError("set labels", fmt.Sprintf("#%d", number), err)
	}
	return nil
}

// PullRequests returns every pull request of the repository, open and closed,
// newest first, following pagination.
func (g *GitHub) PullRequests(ctx context.Context) ([]RemotePullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []RemotePullRequest
	for {
		callCtx, cancel := g.callContext(ctx)
		prs, resp, err := g.client.PullRequests.List(callCtx, g.owner, g.repo, opts)
		cancel()
		if err != nil {
			return nil, g.wrapError("list pull requests", g.repo, err)
		}
		for _, pr := range prs {
			all = append(all, RemotePullRequest{
				Number:    pr.GetNumber(),
				Body:      pr.GetBody(),
				HTMLURL:   pr.GetHTMLURL(),
				State:     pr.GetState(),
				CreatedAt: pr.GetCreatedAt(),
				MergedAt:  pr.MergedAt,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func (g *GitHub) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

// wrapError maps an API error onto the platform error taxonomy.
func (g *GitHub) wrapError(op, target string, err error) error {
	switch status := statusOf(err); {
	case status == http.StatusNotFound:
		return fmt.Errorf("%s %q: %w", op, target, ErrNotFound)
	case status == http.StatusConflict:
		return fmt.Errorf("%s %q: %w", op, target, ErrConflict)
	case status >= 500:
		return &TransientError{Op: op, Target: target, Err: err}
	case status != 0:
		return fmt.Errorf("%s %q: %w", op, target, err)
	default:
		// No HTTP status at all: the request never completed.
		return &TransientError{Op: op, Target: target, Err: err}
	}
}

// statusOf extracts the HTTP status code from an API error, or 0 when the
// request never got a response.
func statusOf(err error) int {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	return 0
}
