package model

import "errors"

var (
	// ErrDescriptorDecode marks a pull request whose body does not carry a
	// valid change descriptor, such as a pull request opened by hand.
	ErrDescriptorDecode = errors.New("pull request body is not a change descriptor")

	// ErrBranchAllocationExhausted is returned when every candidate branch
	// name within the retry budget is already taken.
	ErrBranchAllocationExhausted = errors.New("branch allocation exhausted")

	// ErrItemNotFound is returned when the referenced item file does not
	// exist in the catalog repository.
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidItemID is returned when an item id is empty or tries to
	// escape its user directory.
	ErrInvalidItemID = errors.New("invalid item id")

	// ErrInvalidUser is returned when the submitting user is not known.
	ErrInvalidUser = errors.New("user not specified")

	// ErrInvalidFilter is returned when the listing filter is not one of
	// the supported values.
	ErrInvalidFilter = errors.New("invalid filter")
)
