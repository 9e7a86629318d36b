// Package loader reads file contents for surviving entries. Failures are
// captured as values so a single unreadable file never aborts the run.
package loader

import (
	"os"
	"unicode/utf8"
)

// Failure reasons reported for loads that cannot produce text.
const (
	// NotTextReason marks content that is not valid UTF-8 text.
	NotTextReason = "content is not valid UTF-8 text"
	// IsDirectoryReason marks a path that resolves to a directory, such as an
	// unfollowed symlink pointing at one.
	IsDirectoryReason = "path is a directory"
)

// FileContent is the result of one attempted read: either the decoded text or
// a human-readable failure reason. A failed load is never retried.
type FileContent struct {
	// Text holds the decoded file content on success.
	Text string
	// FailureReason is empty on success.
	FailureReason string
}

// Failed reports whether the load produced a failure instead of text.
func (content FileContent) Failed() bool {
	return content.FailureReason != ""
}

// Load reads the full content of the file at absolutePath and decodes it as
// UTF-8 text. I/O errors, directory targets, and non-text content all yield a
// failure value rather than an error.
func Load(absolutePath string) FileContent {
	targetInformation, statError := os.Stat(absolutePath)
	if statError != nil {
		return FileContent{FailureReason: statError.Error()}
	}
	if targetInformation.IsDir() {
		return FileContent{FailureReason: IsDirectoryReason}
	}

	fileBytes, readError := os.ReadFile(absolutePath)
	if readError != nil {
		return FileContent{FailureReason: readError.Error()}
	}
	if !isText(fileBytes) {
		return FileContent{FailureReason: NotTextReason}
	}
	return FileContent{Text: string(fileBytes)}
}

// isText reports whether data decodes as UTF-8 and carries no NUL bytes.
func isText(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	for _, byteValue := range data {
		if byteValue == 0 {
			return false
		}
	}
	return true
}
