package platform

// ContentToken is the optimistic-concurrency token for a conditional file
// write or delete. It is either "new file" (no prior content at the path) or
// the content hash of the bytes currently stored there. Modeling the two
// cases explicitly keeps the new-vs-update distinction out of string
// conventions.
type ContentToken struct {
	sha    string
	exists bool
}

// NewFileToken returns the token for a path with no prior content.
func NewFileToken() ContentToken {
	return ContentToken{}
}

// ExistingToken returns the token for existing content with the given hash.
// An empty hash degrades to a new-file token.
func ExistingToken(sha string) ContentToken {
	if sha == "" {
		return ContentToken{}
	}
	return ContentToken{sha: sha, exists: true}
}

// IsNew reports whether the token represents a brand-new file.
func (t ContentToken) IsNew() bool {
	return !t.exists
}

// SHA returns the content hash, or the empty string for a new-file token.
func (t ContentToken) SHA() string {
	return t.sha
}
