// Package builder orchestrates the single traversal pass: it drives the
// walker, consults the rule set, constructs the tree of surviving entries,
// and schedules bounded concurrent content loads.
package builder

import (
	"context"
	"fmt"
	"path"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cunw/cunw/internal/loader"
	"github.com/cunw/cunw/internal/rules"
	"github.com/cunw/cunw/internal/tree"
	"github.com/cunw/cunw/internal/walker"
)

// DefaultMaxConcurrentReads bounds in-flight file reads when the
// configuration does not specify a limit.
const DefaultMaxConcurrentReads = 8

const (
	errorTraversalFormat  = "traversing %s: %w"
	errorNonTextFormat    = "file %s is not valid UTF-8 text"
	warningLoadFailures   = "some files failed to load; output contains inline failure markers"
	debugExcludedMessage  = "entry excluded"
	debugTraversalStarted = "building codebase tree"
)

// Config captures one run's traversal parameters. It is immutable for the
// duration of the run.
type Config struct {
	// RootPath is the absolute, validated path of the traversal root.
	RootPath string
	// MaxDepth bounds traversal depth; walker.UnboundedDepth disables the bound.
	MaxDepth int
	// FollowSymlinks enables descending into symlinked directories.
	FollowSymlinks bool
	// AllowGitTraversal disables the built-in .git exclusion rule.
	AllowGitTraversal bool
	// ConsiderIgnoreFiles enables per-directory ignore-file groups.
	ConsiderIgnoreFiles bool
	// ExcludeGlobs are the user-supplied exclude patterns.
	ExcludeGlobs []string
	// ExitOnNonText makes a non-UTF-8 file fatal instead of an inline marker.
	ExitOnNonText bool
	// MaxConcurrentReads bounds in-flight content loads; zero or negative
	// selects DefaultMaxConcurrentReads.
	MaxConcurrentReads int
}

// Build walks the filesystem exactly once and returns the tree of surviving
// entries with all content loads resolved. Content loads overlap the
// traversal on a bounded pool; Build returns only after every load settled.
// Per-file load failures are recorded on their items and never fail the
// build unless ExitOnNonText is set and a non-text file is encountered.
func Build(ctx context.Context, configuration Config, logger *zap.Logger) (*tree.Tree, error) {
	ruleSet, ruleSetError := rules.NewSet(configuration.ExcludeGlobs, configuration.ConsiderIgnoreFiles, configuration.AllowGitTraversal, logger)
	if ruleSetError != nil {
		return nil, ruleSetError
	}

	logger.Debug(debugTraversalStarted, zap.String("root", configuration.RootPath))

	treeWalker := walker.New(configuration.RootPath, configuration.MaxDepth, configuration.FollowSymlinks, logger)
	containerTree := tree.New()

	// directoryItems and ruleStacks are keyed by relative path. Depth-first
	// order guarantees a parent is registered before its children are
	// visited; the stack snapshots are immutable so sibling subtrees never
	// observe each other's groups.
	directoryItems := map[string]*tree.Item{".": containerTree.Root()}
	ruleStacks := map[string]rules.Stack{}
	rootStack := rules.Stack{}
	if rootGroup := ruleSet.LoadDirectoryGroup(configuration.RootPath, ".", 0); rootGroup != nil {
		rootStack = rootStack.Push(rootGroup)
	}
	ruleStacks["."] = rootStack

	concurrentReadLimit := configuration.MaxConcurrentReads
	if concurrentReadLimit <= 0 {
		concurrentReadLimit = DefaultMaxConcurrentReads
	}
	loadGroup, loadContext := errgroup.WithContext(ctx)
	loadGroup.SetLimit(concurrentReadLimit)
	var loadFailureCount atomic.Int64

	walkError := treeWalker.Walk(func(entry walker.Entry) error {
		parentRelativePath := path.Dir(entry.RelativePath)
		parentStack := ruleStacks[parentRelativePath]
		isDirectory := entry.Kind == walker.EntryKindDirectory

		if ruleSet.IsExcluded(entry.RelativePath, isDirectory, parentStack) {
			logger.Debug(debugExcludedMessage, zap.String("path", entry.RelativePath))
			if isDirectory {
				return walker.SkipDirectory
			}
			return nil
		}

		parentItem := directoryItems[parentRelativePath]
		if isDirectory {
			directoryItem := parentItem.AddDirectory(entry.Name, entry.RelativePath)
			directoryItems[entry.RelativePath] = directoryItem
			directoryStack := parentStack
			if directoryGroup := ruleSet.LoadDirectoryGroup(entry.AbsolutePath, entry.RelativePath, entry.Depth); directoryGroup != nil {
				directoryStack = parentStack.Push(directoryGroup)
			}
			ruleStacks[entry.RelativePath] = directoryStack
			return nil
		}

		fileItem := parentItem.AddFile(entry.Name, entry.RelativePath)
		absolutePath := entry.AbsolutePath
		relativePath := entry.RelativePath
		loadGroup.Go(func() error {
			if contextError := loadContext.Err(); contextError != nil {
				fileItem.SetFailedContent(contextError.Error())
				return nil
			}
			fileContent := loader.Load(absolutePath)
			if !fileContent.Failed() {
				fileItem.SetLoadedContent(fileContent.Text)
				return nil
			}
			if configuration.ExitOnNonText && fileContent.FailureReason == loader.NotTextReason {
				return fmt.Errorf(errorNonTextFormat, relativePath)
			}
			fileItem.SetFailedContent(fileContent.FailureReason)
			loadFailureCount.Add(1)
			return nil
		})
		return nil
	})

	loadError := loadGroup.Wait()
	if walkError != nil {
		return nil, fmt.Errorf(errorTraversalFormat, configuration.RootPath, walkError)
	}
	if loadError != nil {
		return nil, loadError
	}
	if failureCount := loadFailureCount.Load(); failureCount > 0 {
		logger.Warn(warningLoadFailures, zap.Int64("count", failureCount))
	}
	return containerTree, nil
}
