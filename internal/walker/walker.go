// Package walker performs the single filesystem traversal, honoring the
// depth bound and symlink policy while yielding entries in a deterministic
// order.
package walker

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cunw/cunw/internal/utils"
)

// EntryKind classifies a yielded filesystem entry.
type EntryKind int

const (
	// EntryKindDirectory marks an entry the walker is prepared to descend into.
	EntryKindDirectory EntryKind = iota
	// EntryKindFile marks a regular file (or a followed symlink to one).
	EntryKindFile
	// EntryKindSymlinkLeaf marks a symlink yielded as a terminal entry:
	// either following is disabled, the target is unreachable, or descending
	// would re-enter a directory already on the ancestor chain.
	EntryKindSymlinkLeaf
)

// Entry is one candidate filesystem entry yielded during traversal.
type Entry struct {
	// Name is the base name of the entry.
	Name string
	// AbsolutePath is the filesystem path of the entry.
	AbsolutePath string
	// RelativePath is the slash-separated path relative to the traversal root.
	RelativePath string
	// Depth is the distance from the traversal root; direct children are at 1.
	Depth int
	// Kind classifies the entry.
	Kind EntryKind
}

// SkipDirectory is returned by a VisitFunc to prune the subtree of a
// directory entry. For non-directory entries it has no effect.
var SkipDirectory = errors.New("skip directory subtree")

// VisitFunc receives each yielded entry. Returning SkipDirectory prevents
// descent into a directory entry; any other non-nil error aborts the walk.
type VisitFunc func(entry Entry) error

const (
	// UnboundedDepth disables the depth limit.
	UnboundedDepth = -1

	warningReadDirectoryMessage   = "failed to read directory"
	warningStatEntryMessage       = "failed to stat entry"
	warningResolveSymlinkMessage  = "failed to resolve symlink target"
	warningSymlinkCycleMessage    = "symlink cycle detected; not re-entering directory"
	warningResolveAncestorMessage = "failed to resolve canonical directory identity"
)

// Walker traverses a directory tree exactly once per Walk call. Siblings are
// yielded in lexical name order so repeated runs produce identical sequences.
type Walker struct {
	rootPath       string
	maxDepth       int
	followSymlinks bool
	logger         *zap.Logger
}

// New constructs a Walker rooted at the absolute path rootPath. A negative
// maxDepth leaves the traversal unbounded.
func New(rootPath string, maxDepth int, followSymlinks bool, logger *zap.Logger) *Walker {
	return &Walker{
		rootPath:       filepath.Clean(rootPath),
		maxDepth:       maxDepth,
		followSymlinks: followSymlinks,
		logger:         logger,
	}
}

// Walk traverses the tree below the root, invoking visit for every yielded
// entry. The root itself is not yielded; it always survives. Unreadable
// directories and vanished entries are logged and skipped without aborting
// the traversal, except for the root directory whose read failure fails the
// whole walk.
func (walker *Walker) Walk(visit VisitFunc) error {
	ancestorChain := make(map[string]struct{})
	if walker.followSymlinks {
		canonicalRoot, resolveError := filepath.EvalSymlinks(walker.rootPath)
		if resolveError != nil {
			walker.logger.Warn(warningResolveAncestorMessage,
				zap.String("path", walker.rootPath), zap.Error(resolveError))
		} else {
			ancestorChain[canonicalRoot] = struct{}{}
		}
	}
	return walker.walkDirectory(walker.rootPath, ".", 0, ancestorChain, visit)
}

// walkDirectory yields the children of one directory and recurses into the
// surviving subdirectories. directoryDepth is the depth of the directory
// itself; its children live at directoryDepth+1.
func (walker *Walker) walkDirectory(absoluteDirectoryPath string, relativeDirectoryPath string, directoryDepth int, ancestorChain map[string]struct{}, visit VisitFunc) error {
	childDepth := directoryDepth + 1
	if walker.maxDepth >= 0 && childDepth > walker.maxDepth {
		return nil
	}

	directoryEntries, readDirectoryError := os.ReadDir(absoluteDirectoryPath)
	if readDirectoryError != nil {
		if directoryDepth == 0 {
			return readDirectoryError
		}
		walker.logger.Warn(warningReadDirectoryMessage,
			zap.String("path", absoluteDirectoryPath), zap.Error(readDirectoryError))
		return nil
	}

	// os.ReadDir sorts by file name, which fixes the sibling order.
	for _, directoryEntry := range directoryEntries {
		childAbsolutePath := filepath.Join(absoluteDirectoryPath, directoryEntry.Name())
		childRelativePath := utils.JoinRelative(relativeDirectoryPath, directoryEntry.Name())

		entryKind, canonicalPath, classified := walker.classifyEntry(directoryEntry, childAbsolutePath, ancestorChain)
		if !classified {
			continue
		}

		visitError := visit(Entry{
			Name:         directoryEntry.Name(),
			AbsolutePath: childAbsolutePath,
			RelativePath: childRelativePath,
			Depth:        childDepth,
			Kind:         entryKind,
		})
		if errors.Is(visitError, SkipDirectory) {
			continue
		}
		if visitError != nil {
			return visitError
		}

		if entryKind != EntryKindDirectory {
			continue
		}
		if canonicalPath != "" {
			ancestorChain[canonicalPath] = struct{}{}
		}
		descendError := walker.walkDirectory(childAbsolutePath, childRelativePath, childDepth, ancestorChain, visit)
		if canonicalPath != "" {
			delete(ancestorChain, canonicalPath)
		}
		if descendError != nil {
			return descendError
		}
	}
	return nil
}

// classifyEntry determines the kind of a directory entry under the symlink
// policy. The returned canonicalPath is non-empty only for directories whose
// identity must guard the ancestor chain while descending. A false third
// result drops the entry entirely (it vanished or cannot be classified).
func (walker *Walker) classifyEntry(directoryEntry fs.DirEntry, absolutePath string, ancestorChain map[string]struct{}) (EntryKind, string, bool) {
	if directoryEntry.Type()&fs.ModeSymlink == 0 {
		if !directoryEntry.IsDir() {
			return EntryKindFile, "", true
		}
		if !walker.followSymlinks {
			return EntryKindDirectory, "", true
		}
		canonicalPath, resolveError := filepath.EvalSymlinks(absolutePath)
		if resolveError != nil {
			walker.logger.Warn(warningResolveAncestorMessage,
				zap.String("path", absolutePath), zap.Error(resolveError))
			canonicalPath = ""
		}
		return EntryKindDirectory, canonicalPath, true
	}

	if !walker.followSymlinks {
		return EntryKindSymlinkLeaf, "", true
	}

	targetInformation, statError := os.Stat(absolutePath)
	if statError != nil {
		walker.logger.Warn(warningResolveSymlinkMessage,
			zap.String("path", absolutePath), zap.Error(statError))
		return EntryKindSymlinkLeaf, "", true
	}
	if !targetInformation.IsDir() {
		return EntryKindFile, "", true
	}

	canonicalPath, resolveError := filepath.EvalSymlinks(absolutePath)
	if resolveError != nil {
		walker.logger.Warn(warningResolveSymlinkMessage,
			zap.String("path", absolutePath), zap.Error(resolveError))
		return EntryKindSymlinkLeaf, "", true
	}
	if _, alreadyOnChain := ancestorChain[canonicalPath]; alreadyOnChain {
		walker.logger.Warn(warningSymlinkCycleMessage, zap.String("path", absolutePath))
		return EntryKindSymlinkLeaf, "", true
	}
	return EntryKindDirectory, canonicalPath, true
}
