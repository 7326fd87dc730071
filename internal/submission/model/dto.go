package model

import "fmt"

// Filter selects which items a listing returns.
type Filter string

const (
	FilterPending   Filter = "pending"
	FilterConfirmed Filter = "confirmed"
)

// ParseFilter parses the filter query parameter. Confirmed items are the
// default when no filter is given.
func ParseFilter(s string) (Filter, error) {
	switch s {
	case "", string(FilterConfirmed):
		return FilterConfirmed, nil
	case string(FilterPending):
		return FilterPending, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
}

// ItemsResponse lists the item file names visible to the caller.
type ItemsResponse struct {
	Items []string `json:"items"`
}

// CreatedResponse reports the pull request opened for a submission.
type CreatedResponse struct {
	URL string `json:"url"`
}
