// Package gitlog defines the structured pretty-format used to read commits
// from git and parses its output into commit records.
//
// Fields are joined by FieldDelimiter and each record is terminated by
// RecordTerminator, so commit bodies may contain any text, including blank
// lines, without breaking record boundaries.
package gitlog

import (
	"log/slog"
	"strings"

	"github.com/xvierd/commitwatch/internal/domain"
)

const (
	// FieldDelimiter separates fields inside a record.
	FieldDelimiter = "\x1f--cw-field--\x1f"

	// RecordTerminator ends each record.
	RecordTerminator = "\x1e--cw-end--\x1e"

	// DateFormat is passed to git's --date option for log records.
	DateFormat = "format:%Y-%m-%d %H:%M:%S"

	logFieldCount    = 4
	detailFieldCount = 8
)

// LogArgs returns the git arguments listing commits in fromRef..toRef,
// newest first, in the record format understood by Parse.
func LogArgs(fromRef, toRef string) []string {
	format := strings.Join([]string{"%H", "%an", "%ad", "%B"}, FieldDelimiter) + RecordTerminator
	return []string{
		"log",
		"--no-color",
		"--pretty=format:" + format,
		"--date=" + DateFormat,
		"--end-of-options",
		fromRef + ".." + toRef,
	}
}

// ShowArgs returns the git arguments describing a single commit in the
// format understood by ParseDetail.
func ShowArgs(ref string) []string {
	format := strings.Join([]string{"%H", "%an", "%ae", "%ad", "%cn", "%ce", "%cd", "%B"}, FieldDelimiter)
	return []string{
		"show",
		"--no-patch",
		"--no-color",
		"--pretty=format:" + format,
		"--date=" + DateFormat,
		"--end-of-options",
		ref,
		"--",
	}
}

// Parse turns raw log output into commit records, preserving order.
// Malformed records are logged and skipped.
func Parse(raw string, logger *slog.Logger) []domain.CommitRecord {
	if logger == nil {
		logger = slog.Default()
	}

	var commits []domain.CommitRecord
	for i, segment := range strings.Split(raw, RecordTerminator) {
		segment = strings.TrimLeft(segment, "\r\n")
		if strings.TrimSpace(segment) == "" {
			continue
		}

		fields := splitFields(segment, logFieldCount)
		if fields == nil {
			logger.Warn("skipping malformed log record", "index", i, "fields", strings.Count(segment, FieldDelimiter)+1)
			continue
		}

		commit, err := domain.NewCommitRecord(fields[0], fields[1], fields[2], trimBody(fields[3]))
		if err != nil {
			logger.Warn("skipping log record", "index", i, "error", err)
			continue
		}
		commits = append(commits, commit)
	}
	return commits
}

// ParseDetail parses the output of ShowArgs. It returns
// domain.ErrMalformedResponse if the output is incomplete.
func ParseDetail(raw string) (*domain.CommitDetail, error) {
	fields := splitFields(strings.TrimLeft(raw, "\r\n"), detailFieldCount)
	if fields == nil || strings.TrimSpace(fields[0]) == "" {
		return nil, domain.ErrMalformedResponse
	}
	return &domain.CommitDetail{
		Hash:           strings.TrimSpace(fields[0]),
		AuthorName:     fields[1],
		AuthorEmail:    fields[2],
		AuthorDate:     fields[3],
		CommitterName:  fields[4],
		CommitterEmail: fields[5],
		CommitterDate:  fields[6],
		Message:        strings.TrimSpace(fields[7]),
	}, nil
}

// splitFields splits a record into exactly n fields. The last field keeps any
// further delimiters verbatim. Returns nil when fewer than n fields exist.
func splitFields(record string, n int) []string {
	fields := strings.SplitN(record, FieldDelimiter, n)
	if len(fields) < n {
		return nil
	}
	return fields
}

// trimBody drops the trailing newlines git appends to %B.
func trimBody(body string) string {
	return strings.TrimRight(body, "\r\n")
}
