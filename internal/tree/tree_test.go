package tree_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cunw/cunw/internal/tree"
)

// buildSampleTree assembles a small mixed tree:
//
//	.
//	├─ cmd/
//	│  └─ main.go
//	├─ internal/
//	│  ├─ app/
//	│  │  └─ app.go
//	│  └─ version.go
//	└─ readme.md
func buildSampleTree() *tree.Tree {
	containerTree := tree.New()
	rootItem := containerTree.Root()

	commandDirectory := rootItem.AddDirectory("cmd", "cmd")
	commandDirectory.AddFile("main.go", "cmd/main.go")

	internalDirectory := rootItem.AddDirectory("internal", "internal")
	applicationDirectory := internalDirectory.AddDirectory("app", "internal/app")
	applicationDirectory.AddFile("app.go", "internal/app/app.go")
	internalDirectory.AddFile("version.go", "internal/version.go")

	rootItem.AddFile("readme.md", "readme.md")
	return containerTree
}

// TestRenderStructure verifies connector glyphs, directory suffixes, and the
// absence of a trailing newline.
func TestRenderStructure(testingHandle *testing.T) {
	containerTree := buildSampleTree()

	expectedStructure := strings.Join([]string{
		".",
		"├─ cmd/",
		"│  └─ main.go",
		"├─ internal/",
		"│  ├─ app/",
		"│  │  └─ app.go",
		"│  └─ version.go",
		"└─ readme.md",
	}, "\n")
	require.Equal(testingHandle, expectedStructure, containerTree.RenderStructure())
}

// TestRenderStructureEmptyTree verifies an empty tree renders only the root.
func TestRenderStructureEmptyTree(testingHandle *testing.T) {
	require.Equal(testingHandle, ".", tree.New().RenderStructure())
}

// TestIterFilesMatchesRenderOrder verifies file iteration follows the same
// depth-first order the structure diagram draws.
func TestIterFilesMatchesRenderOrder(testingHandle *testing.T) {
	containerTree := buildSampleTree()

	var iteratedPaths []string
	for _, fileItem := range containerTree.IterFiles() {
		require.False(testingHandle, fileItem.IsDir)
		iteratedPaths = append(iteratedPaths, fileItem.RelativePath)
	}
	expectedPaths := []string{"cmd/main.go", "internal/app/app.go", "internal/version.go", "readme.md"}
	require.Equal(testingHandle, expectedPaths, iteratedPaths)
}

// TestContentLifecycle verifies the pending, loaded, and failed content states.
func TestContentLifecycle(testingHandle *testing.T) {
	containerTree := tree.New()
	pendingItem := containerTree.Root().AddFile("pending.txt", "pending.txt")
	loadedItem := containerTree.Root().AddFile("loaded.txt", "loaded.txt")
	failedItem := containerTree.Root().AddFile("failed.bin", "failed.bin")

	loadedItem.SetLoadedContent("hello")
	failedItem.SetFailedContent("content is not valid UTF-8 text")

	require.Equal(testingHandle, tree.ContentPending, pendingItem.ContentState())
	require.Equal(testingHandle, tree.ContentLoaded, loadedItem.ContentState())
	require.Equal(testingHandle, "hello", loadedItem.Content())
	require.Equal(testingHandle, tree.ContentFailed, failedItem.ContentState())
	require.Equal(testingHandle, "content is not valid UTF-8 text", failedItem.FailureReason())
}
