package model

import (
	"encoding/json"
	"fmt"
	"path"
	"time"
)

// ChangeKind identifies what a submission does to its target file.
type ChangeKind string

const (
	ChangeAdd    ChangeKind = "Add"
	ChangeUpdate ChangeKind = "Update"
	ChangeDelete ChangeKind = "Delete"
)

// ParseChangeKind parses the wire form of a change kind.
func ParseChangeKind(s string) (ChangeKind, error) {
	switch kind := ChangeKind(s); kind {
	case ChangeAdd, ChangeUpdate, ChangeDelete:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown change kind %q", s)
	}
}

// SubmissionStatus is the review state of a submission.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusMerged   SubmissionStatus = "merged"
	StatusRejected SubmissionStatus = "rejected"
)

// StatusFromPullRequest derives the submission status from the state of the
// backing pull request. An open pull request is pending; a closed one is
// merged or rejected depending on whether it was merged.
func StatusFromPullRequest(state string, mergedAt *time.Time) SubmissionStatus {
	if state == "open" {
		return StatusPending
	}
	if mergedAt != nil {
		return StatusMerged
	}
	return StatusRejected
}

// Submitter identifies the authenticated caller of a submission.
type Submitter struct {
	User      string
	DataOwner bool
}

// ChangeDescriptor describes a single-file catalog change carried by a
// submission. The descriptor round-trips through the pull request body;
// review metadata (Status, URL, CreatedAt) is attached when reading back and
// is never part of the encoded payload.
type ChangeDescriptor struct {
	// Filename is the path of the target file inside the repository.
	Filename   string
	ItemType   string
	ChangeKind ChangeKind
	User       string
	DataOwner  bool

	Status    SubmissionStatus
	URL       string
	CreatedAt *time.Time
}

// wireDescriptor is the pull request body payload. Pointer fields let decode
// distinguish a missing key from a zero value.
type wireDescriptor struct {
	Filename   *string `json:"filename"`
	ItemType   *string `json:"item_type"`
	ChangeType *string `json:"change_type"`
	User       *string `json:"user"`
	DataOwner  *bool   `json:"data_owner"`
}

// Encode renders the descriptor as a pull request body payload.
func (d ChangeDescriptor) Encode() (string, error) {
	changeType := string(d.ChangeKind)
	payload, err := json.Marshal(wireDescriptor{
		Filename:   &d.Filename,
		ItemType:   &d.ItemType,
		ChangeType: &changeType,
		User:       &d.User,
		DataOwner:  &d.DataOwner,
	})
	if err != nil {
		return "", fmt.Errorf("encode change descriptor: %w", err)
	}
	return string(payload), nil
}

// DecodeDescriptor parses a pull request body into a descriptor. Unknown keys
// are tolerated; a body that is not a descriptor payload, or that lacks any
// required field, returns ErrDescriptorDecode.
func DecodeDescriptor(body string) (ChangeDescriptor, error) {
	var wire wireDescriptor
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return ChangeDescriptor{}, fmt.Errorf("%w: %v", ErrDescriptorDecode, err)
	}
	if wire.Filename == nil || wire.ItemType == nil || wire.ChangeType == nil || wire.User == nil || wire.DataOwner == nil {
		return ChangeDescriptor{}, fmt.Errorf("%w: missing required field", ErrDescriptorDecode)
	}
	kind, err := ParseChangeKind(*wire.ChangeType)
	if err != nil {
		return ChangeDescriptor{}, fmt.Errorf("%w: %v", ErrDescriptorDecode, err)
	}
	return ChangeDescriptor{
		Filename:   *wire.Filename,
		ItemType:   *wire.ItemType,
		ChangeKind: kind,
		User:       *wire.User,
		DataOwner:  *wire.DataOwner,
	}, nil
}

// ItemID returns the bare file name of the target, without its directory.
func (d ChangeDescriptor) ItemID() string {
	return path.Base(d.Filename)
}

// Title renders the pull request title for this change.
func (d ChangeDescriptor) Title() string {
	return fmt.Sprintf("%s %s", d.ChangeKind, d.Filename)
}

// Labels returns the pull request labels for this change: the item type,
// plus a data-owner marker when the submitter owns the data.
func (d ChangeDescriptor) Labels() []string {
	labels := []string{d.ItemType}
	if d.DataOwner {
		labels = append(labels, "data-owner")
	}
	return labels
}
