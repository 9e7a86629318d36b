// Package tree holds the in-memory hierarchical representation of surviving
// paths and renders the structure diagram.
package tree

import "strings"

// ContentState tracks the lifecycle of a file item's content.
type ContentState int

const (
	// ContentPending means the content load has not completed yet.
	ContentPending ContentState = iota
	// ContentLoaded means the file's text was read successfully.
	ContentLoaded
	// ContentFailed means the load failed; the failure reason is recorded.
	ContentFailed
)

// Connector glyphs used by RenderStructure.
const (
	middleChildConnector = "├─ "
	lastChildConnector   = "└─ "
	continuationPrefix   = "│  "
	gapPrefix            = "   "
	directorySuffix      = "/"
	rootDisplayName      = "."
)

// Item is one surviving entry: a directory with ordered children, or a file
// whose content is pending, loaded, or failed. An item is exclusively owned
// by its parent directory.
type Item struct {
	// Name is the base name of the entry; the root is named ".".
	Name string
	// RelativePath is the slash-separated path relative to the traversal root.
	RelativePath string
	// IsDir reports whether the item is a directory.
	IsDir bool
	// Children holds the ordered child items of a directory. The order is
	// fixed at insertion time (lexical by name, directories and files
	// interleaved as encountered) so repeated runs render identically.
	Children []*Item

	contentState  ContentState
	content       string
	failureReason string
}

// AddDirectory appends a directory child and returns it.
func (item *Item) AddDirectory(name string, relativePath string) *Item {
	childItem := &Item{Name: name, RelativePath: relativePath, IsDir: true}
	item.Children = append(item.Children, childItem)
	return childItem
}

// AddFile appends a file child in the pending content state and returns it.
func (item *Item) AddFile(name string, relativePath string) *Item {
	childItem := &Item{Name: name, RelativePath: relativePath}
	item.Children = append(item.Children, childItem)
	return childItem
}

// SetLoadedContent records a successful content load. Each file item is
// written by at most one loader task.
func (item *Item) SetLoadedContent(text string) {
	item.content = text
	item.contentState = ContentLoaded
}

// SetFailedContent records a failed content load with its reason.
func (item *Item) SetFailedContent(reason string) {
	item.failureReason = reason
	item.contentState = ContentFailed
}

// ContentState returns the load state of a file item.
func (item *Item) ContentState() ContentState {
	return item.contentState
}

// Content returns the loaded text; meaningful only in the ContentLoaded state.
func (item *Item) Content() string {
	return item.content
}

// FailureReason returns the recorded load failure; meaningful only in the
// ContentFailed state.
func (item *Item) FailureReason() string {
	return item.failureReason
}

// Tree wraps the root item: a directory named "." representing the traversal
// root. It is mutated only during the single traversal pass and read-only
// thereafter.
type Tree struct {
	root *Item
}

// New constructs a Tree with an empty root directory.
func New() *Tree {
	return &Tree{root: &Item{Name: rootDisplayName, RelativePath: ".", IsDir: true}}
}

// Root returns the root directory item.
func (containerTree *Tree) Root() *Item {
	return containerTree.root
}

// RenderStructure draws the tree with branch connectors. Directories carry a
// trailing slash. The output ends without a trailing newline.
func (containerTree *Tree) RenderStructure() string {
	var structureBuilder strings.Builder
	structureBuilder.WriteString(rootDisplayName)
	renderChildren(&structureBuilder, containerTree.root, "")
	return structureBuilder.String()
}

// renderChildren appends one line per child of directoryItem, recursing into
// subdirectories with an extended prefix.
func renderChildren(structureBuilder *strings.Builder, directoryItem *Item, linePrefix string) {
	lastChildIndex := len(directoryItem.Children) - 1
	for childIndex, childItem := range directoryItem.Children {
		connector := middleChildConnector
		descendantPrefix := linePrefix + continuationPrefix
		if childIndex == lastChildIndex {
			connector = lastChildConnector
			descendantPrefix = linePrefix + gapPrefix
		}
		structureBuilder.WriteString("\n")
		structureBuilder.WriteString(linePrefix)
		structureBuilder.WriteString(connector)
		structureBuilder.WriteString(childItem.Name)
		if childItem.IsDir {
			structureBuilder.WriteString(directorySuffix)
			renderChildren(structureBuilder, childItem, descendantPrefix)
		}
	}
}

// IterFiles returns the file items in depth-first order, identical to the
// order RenderStructure draws them, so the structure diagram and the file
// blocks of the final output always correspond.
func (containerTree *Tree) IterFiles() []*Item {
	var fileItems []*Item
	collectFiles(containerTree.root, &fileItems)
	return fileItems
}

func collectFiles(directoryItem *Item, fileItems *[]*Item) {
	for _, childItem := range directoryItem.Children {
		if childItem.IsDir {
			collectFiles(childItem, fileItems)
			continue
		}
		*fileItems = append(*fileItems, childItem)
	}
}
