// Package domain contains the core entities for commitwatch: commit records,
// remote locations, divergence results and check reports. These types are
// independent of git, the hosting providers and any presentation layer.
package domain

import (
	"errors"
	"strings"
)

// ShortHashLength is the number of hash characters shown in status and
// notification text.
const ShortHashLength = 7

// ErrEmptyHash is returned when a commit record is built without a hash.
var ErrEmptyHash = errors.New("commit hash cannot be empty")

// CommitRecord identifies a single commit. Hash always holds the full value
// reported by git or the provider.
type CommitRecord struct {
	Hash    string `json:"hash"`
	Author  string `json:"author"`
	Date    string `json:"date"`
	Message string `json:"message"`
}

// NewCommitRecord creates a commit record, rejecting an empty hash.
func NewCommitRecord(hash, author, date, message string) (CommitRecord, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return CommitRecord{}, ErrEmptyHash
	}
	return CommitRecord{
		Hash:    hash,
		Author:  author,
		Date:    date,
		Message: message,
	}, nil
}

// ShortHash returns the display form of the hash.
func (c CommitRecord) ShortHash() string {
	return ShortHash(c.Hash)
}

// Subject returns the first line of the commit message.
func (c CommitRecord) Subject() string {
	subject, _, _ := strings.Cut(c.Message, "\n")
	return strings.TrimSpace(subject)
}

// ShortHash truncates a hash to ShortHashLength characters.
func ShortHash(hash string) string {
	if len(hash) > ShortHashLength {
		return hash[:ShortHashLength]
	}
	return hash
}

// CommitDetail is the full description of one commit, used by the
// remote commit details report.
type CommitDetail struct {
	Hash           string `json:"hash"`
	AuthorName     string `json:"author_name"`
	AuthorEmail    string `json:"author_email"`
	AuthorDate     string `json:"author_date"`
	CommitterName  string `json:"committer_name"`
	CommitterEmail string `json:"committer_email"`
	CommitterDate  string `json:"committer_date"`
	Message        string `json:"message"`
}

// RemoteLocation is the owner/repo pair derived from a remote URL, together
// with the provider whose URL pattern matched.
type RemoteLocation struct {
	Provider string `json:"provider"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
}

// String returns "owner/repo".
func (l RemoteLocation) String() string {
	return l.Owner + "/" + l.Repo
}
