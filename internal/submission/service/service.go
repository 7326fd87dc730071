package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/EOEPCA/open-science-catalog-backend/internal/platform"
	"github.com/EOEPCA/open-science-catalog-backend/internal/submission/model"
	"github.com/EOEPCA/open-science-catalog-backend/internal/submission/repository"
)

// branchBaseMaxLen keeps branch names short enough to stay readable in the
// hosting platform UI.
const branchBaseMaxLen = 30

// DefaultItemType is recorded when the caller does not classify the item.
const DefaultItemType = "item"

// SubmissionRepository is what the service needs from the data layer.
type SubmissionRepository interface {
	Submit(ctx context.Context, params repository.SubmitParams) (platform.CreatedPullRequest, error)
	Submissions(ctx context.Context, user string) ([]model.ChangeDescriptor, error)
	ConfirmedItems(ctx context.Context, dir string) ([]string, error)
	ItemContent(ctx context.Context, filePath string) ([]byte, error)
}

// Service implements the item workflow: every mutation becomes a pull
// request against the catalog repository, and reads come from either open
// pull requests (pending) or the main branch tree (confirmed). Items live
// under per-user directories, so the submitter fully determines the paths an
// operation may touch.
type Service struct {
	repo   SubmissionRepository
	logger *zap.SugaredLogger
}

// New creates a submission service.
func New(repo SubmissionRepository, logger *zap.SugaredLogger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// CreateItem submits a new item file and returns the pull request opened
// for review.
func (s *Service) CreateItem(ctx context.Context, submitter model.Submitter, itemID, itemType string, content []byte) (model.CreatedResponse, error) {
	descriptor, err := buildDescriptor(submitter, itemID, itemType, model.ChangeAdd)
	if err != nil {
		return model.CreatedResponse{}, err
	}
	return s.submitChange(ctx, descriptor, content)
}

// UpdateItem submits replacement content for an item.
func (s *Service) UpdateItem(ctx context.Context, submitter model.Submitter, itemID, itemType string, content []byte) (model.CreatedResponse, error) {
	descriptor, err := buildDescriptor(submitter, itemID, itemType, model.ChangeUpdate)
	if err != nil {
		return model.CreatedResponse{}, err
	}
	return s.submitChange(ctx, descriptor, content)
}

// DeleteItem submits the removal of an item.
func (s *Service) DeleteItem(ctx context.Context, submitter model.Submitter, itemID, itemType string) (model.CreatedResponse, error) {
	descriptor, err := buildDescriptor(submitter, itemID, itemType, model.ChangeDelete)
	if err != nil {
		return model.CreatedResponse{}, err
	}
	return s.submitChange(ctx, descriptor, nil)
}

// ListItems returns the ids of the user's items: pending ones from open
// submissions, confirmed ones from the main branch catalog.
func (s *Service) ListItems(ctx context.Context, user string, filter model.Filter) ([]string, error) {
	if err := validateUser(user); err != nil {
		return nil, err
	}

	switch filter {
	case model.FilterPending:
		descriptors, err := s.repo.Submissions(ctx, user)
		if err != nil {
			return nil, err
		}
		items := make([]string, 0, len(descriptors))
		for _, descriptor := range descriptors {
			if descriptor.Status != model.StatusPending {
				continue
			}
			items = append(items, descriptor.ItemID())
		}
		return items, nil
	case model.FilterConfirmed:
		return s.repo.ConfirmedItems(ctx, user)
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidFilter, filter)
	}
}

// GetItem reads a confirmed item's content from the main branch.
func (s *Service) GetItem(ctx context.Context, user, itemID string) ([]byte, error) {
	if err := validateUser(user); err != nil {
		return nil, err
	}
	if err := validateItemID(itemID); err != nil {
		return nil, err
	}
	return s.repo.ItemContent(ctx, user+"/"+itemID)
}

func (s *Service) submitChange(ctx context.Context, descriptor model.ChangeDescriptor, content []byte) (model.CreatedResponse, error) {
	body, err := descriptor.Encode()
	if err != nil {
		return model.CreatedResponse{}, err
	}

	params := repository.SubmitParams{
		BranchBase: branchBase(descriptor),
		Title:      descriptor.Title(),
		Body:       body,
		Labels:     descriptor.Labels(),
	}
	if descriptor.ChangeKind == model.ChangeDelete {
		params.Delete = descriptor.Filename
	} else {
		params.Create = &repository.FileChange{Path: descriptor.Filename, Content: content}
	}

	pr, err := s.repo.Submit(ctx, params)
	if err != nil {
		return model.CreatedResponse{}, err
	}
	s.logger.Infow("Submitted catalog change",
		"title", params.Title,
		"user", descriptor.User,
		"pull_request", pr.URL,
	)
	return model.CreatedResponse{URL: pr.URL}, nil
}

func buildDescriptor(submitter model.Submitter, itemID, itemType string, kind model.ChangeKind) (model.ChangeDescriptor, error) {
	if err := validateUser(submitter.User); err != nil {
		return model.ChangeDescriptor{}, err
	}
	if err := validateItemID(itemID); err != nil {
		return model.ChangeDescriptor{}, err
	}
	if itemType == "" {
		itemType = DefaultItemType
	}
	return model.ChangeDescriptor{
		Filename:   submitter.User + "/" + itemID,
		ItemType:   itemType,
		ChangeKind: kind,
		User:       submitter.User,
		DataOwner:  submitter.DataOwner,
	}, nil
}

// branchBase derives a branch name seed from the change title, so branches
// read like "add-bob-x-json". Collisions get numeric suffixes downstream.
func branchBase(descriptor model.ChangeDescriptor) string {
	base := slug.Make(descriptor.Title())
	if len(base) > branchBaseMaxLen {
		base = strings.Trim(base[:branchBaseMaxLen], "-")
	}
	return base
}

func validateUser(user string) error {
	if user == "" {
		return model.ErrInvalidUser
	}
	if user == "." || user == ".." || strings.ContainsAny(user, "/\\") {
		return fmt.Errorf("%w: %q", model.ErrInvalidUser, user)
	}
	return nil
}

func validateItemID(itemID string) error {
	if itemID == "" || len(itemID) > 255 {
		return fmt.Errorf("%w: %q", model.ErrInvalidItemID, itemID)
	}
	if itemID == "." || itemID == ".." || strings.ContainsAny(itemID, "/\\") {
		return fmt.Errorf("%w: %q", model.ErrInvalidItemID, itemID)
	}
	return nil
}
