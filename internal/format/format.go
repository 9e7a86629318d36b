// Package format renders the tree and its loaded contents into the final
// text payload.
package format

import (
	"fmt"
	"strings"

	"github.com/cunw/cunw/internal/tree"
)

const (
	structureOpenTag  = "<directory_structure>"
	structureCloseTag = "</directory_structure>"

	fileOpenTagFormat = "<file path=%q>\n"
	fileCloseTag      = "</file>\n"

	failureMarkerFormat = "[failed to load: %s]"
	pendingMarker       = "[content was never loaded]"
)

// Render emits the structure diagram followed by one tagged block per file in
// tree iteration order. A failed load renders as an inline failure marker
// inside its block. File content is reproduced verbatim; content that itself
// contains the literal "</file>" delimiter is not escaped, which is a known
// limitation of the format.
func Render(containerTree *tree.Tree) string {
	var payloadBuilder strings.Builder
	payloadBuilder.WriteString(structureOpenTag)
	payloadBuilder.WriteString("\n")
	payloadBuilder.WriteString(containerTree.RenderStructure())
	payloadBuilder.WriteString("\n")
	payloadBuilder.WriteString(structureCloseTag)
	payloadBuilder.WriteString("\n")

	for _, fileItem := range containerTree.IterFiles() {
		payloadBuilder.WriteString("\n")
		fmt.Fprintf(&payloadBuilder, fileOpenTagFormat, fileItem.RelativePath)
		blockBody := blockBodyFor(fileItem)
		payloadBuilder.WriteString(blockBody)
		if !strings.HasSuffix(blockBody, "\n") {
			payloadBuilder.WriteString("\n")
		}
		payloadBuilder.WriteString(fileCloseTag)
	}
	return payloadBuilder.String()
}

// blockBodyFor selects the verbatim content or the visible marker for a file
// block.
func blockBodyFor(fileItem *tree.Item) string {
	switch fileItem.ContentState() {
	case tree.ContentLoaded:
		return fileItem.Content()
	case tree.ContentFailed:
		return fmt.Sprintf(failureMarkerFormat, fileItem.FailureReason())
	default:
		return pendingMarker
	}
}
