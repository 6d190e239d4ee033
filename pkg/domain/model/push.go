package model

import "strings"

const branchRefPrefix = "refs/heads/"

// Commit is a single commit carried by a push event
type Commit struct {
	ID      string
	URL     string
	Message string
}

// ShortID returns the first 6 characters of the commit ID
func (c Commit) ShortID() string {
	if len(c.ID) <= 6 {
		return c.ID
	}
	return c.ID[:6]
}

// Sender is the user who triggered the push
type Sender struct {
	Login     string
	URL       string
	AvatarURL string
}

// PushEvent represents information extracted from a push webhook payload
type PushEvent struct {
	DeliveryID    string   // X-GitHub-Delivery header
	Repository    string   // Full name, owner/name
	RepositoryURL string   // HTML URL of the repository
	SSHURL        string   // SSH clone URL of the repository
	Ref           string   // Git ref, e.g. refs/heads/main
	Compare       string   // Compare URL, trailing path segment is the compared hash range
	HeadCommit    Commit   // Head commit of the push
	Commits       []Commit // Pushed commits in order
	Sender        Sender   // User who pushed
}

// Branch returns the branch name and true when Ref is a branch ref
func (e *PushEvent) Branch() (string, bool) {
	if !strings.HasPrefix(e.Ref, branchRefPrefix) {
		return "", false
	}
	return strings.TrimPrefix(e.Ref, branchRefPrefix), true
}

// CompareHash returns the trailing path segment of the compare URL
func (e *PushEvent) CompareHash() string {
	idx := strings.LastIndex(e.Compare, "/")
	return e.Compare[idx+1:]
}

// BranchRef builds the full ref for a branch name
func BranchRef(branch string) string {
	return branchRefPrefix + branch
}
