// Package rules layers user-supplied exclude globs over nested ignore-file
// groups and answers whether a relative path is excluded from traversal.
package rules

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/woozymasta/pathrules"
	"go.uber.org/zap"

	"github.com/cunw/cunw/internal/utils"
)

// Ignore file names honored during traversal.
const (
	// GitIgnoreFileName is the name of the Git ignore file.
	GitIgnoreFileName = ".gitignore"
	// IgnoreFileName is the name of the tool-agnostic ignore file.
	IgnoreFileName = ".ignore"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
)

const (
	errorInvalidExcludePatternFormat = "invalid exclude pattern %q: %w"
	warningMalformedPatternMessage   = "skipping malformed ignore pattern"
	warningIgnoreFileReadMessage     = "failed to read ignore file"
)

// Group holds the compiled rules of the ignore files found in one directory.
// A group is read-only after creation and scoped to its declaring directory
// and everything below it.
type Group struct {
	// Directory is the slash-separated path of the declaring directory
	// relative to the traversal root, "." for the root itself.
	Directory string
	// Depth is the traversal depth at which the group was declared.
	Depth int

	matcher *pathrules.Matcher
}

// Stack is an immutable snapshot of the ignore-file groups active for one
// directory frame, ordered shallowest first. Each recursion frame owns its
// own copy; pushing never mutates the receiver.
type Stack []*Group

// Push returns a new stack with group appended. The receiver is unchanged, so
// sibling frames never observe each other's additions.
func (stack Stack) Push(group *Group) Stack {
	extendedStack := make(Stack, len(stack), len(stack)+1)
	copy(extendedStack, stack)
	return append(extendedStack, group)
}

// Set evaluates the layered exclusion rules. It is read-only after
// construction and safe to share across concurrent readers.
type Set struct {
	excludeMatcher      *pathrules.Matcher
	considerIgnoreFiles bool
	allowGitTraversal   bool
	logger              *zap.Logger
}

// NewSet compiles the user-supplied exclude globs into a Set.
//
// An invalid glob is a configuration error: the Set is not built and the
// offending pattern is reported. Ignore-file groups are added lazily during
// traversal via LoadDirectoryGroup.
func NewSet(excludeGlobs []string, considerIgnoreFiles bool, allowGitTraversal bool, logger *zap.Logger) (*Set, error) {
	ruleSet := &Set{
		considerIgnoreFiles: considerIgnoreFiles,
		allowGitTraversal:   allowGitTraversal,
		logger:              logger,
	}

	normalizedGlobs := utils.DeduplicatePatterns(excludeGlobs)
	if len(normalizedGlobs) == 0 {
		return ruleSet, nil
	}

	excludeRules := make([]pathrules.Rule, 0, len(normalizedGlobs))
	for _, excludeGlob := range normalizedGlobs {
		normalizedPattern := utils.NormalizeRelativePattern(excludeGlob)
		if normalizedPattern == "" {
			continue
		}
		excludeRule := pathrules.Rule{Pattern: normalizedPattern, Action: pathrules.ActionExclude}
		if _, compileError := pathrules.NewMatcher([]pathrules.Rule{excludeRule}, matcherOptions()); compileError != nil {
			return nil, fmt.Errorf(errorInvalidExcludePatternFormat, excludeGlob, compileError)
		}
		excludeRules = append(excludeRules, excludeRule)
	}
	if len(excludeRules) == 0 {
		return ruleSet, nil
	}

	excludeMatcher, buildError := pathrules.NewMatcher(excludeRules, matcherOptions())
	if buildError != nil {
		return nil, fmt.Errorf(errorInvalidExcludePatternFormat, strings.Join(normalizedGlobs, ","), buildError)
	}
	ruleSet.excludeMatcher = excludeMatcher
	return ruleSet, nil
}

// ConsidersIgnoreFiles reports whether ignore files participate in rule
// evaluation for this Set.
func (ruleSet *Set) ConsidersIgnoreFiles() bool {
	return ruleSet.considerIgnoreFiles
}

// LoadDirectoryGroup reads the ignore files of one directory and compiles
// them into a Group. It returns nil when ignore files are disabled, absent,
// or contain no usable rules. Malformed lines are skipped with a warning; the
// rest of the group still applies. Lines from .ignore follow lines from
// .gitignore, so .ignore wins under last-match-wins evaluation.
func (ruleSet *Set) LoadDirectoryGroup(absoluteDirectoryPath string, relativeDirectoryPath string, depth int) *Group {
	if !ruleSet.considerIgnoreFiles {
		return nil
	}

	var parsedRules []pathrules.Rule
	for _, ignoreFileName := range []string{GitIgnoreFileName, IgnoreFileName} {
		ignoreFilePath := filepath.Join(absoluteDirectoryPath, ignoreFileName)
		fileHandle, openError := os.Open(ignoreFilePath)
		if openError != nil {
			if !os.IsNotExist(openError) {
				ruleSet.logger.Warn(warningIgnoreFileReadMessage,
					zap.String("path", ignoreFilePath), zap.Error(openError))
			}
			continue
		}
		fileRules, parseError := pathrules.ParseRules(fileHandle, pathrules.ParseOptions{})
		closeError := fileHandle.Close()
		if parseError != nil {
			ruleSet.logger.Warn(warningIgnoreFileReadMessage,
				zap.String("path", ignoreFilePath), zap.Error(parseError))
			continue
		}
		if closeError != nil {
			ruleSet.logger.Warn(warningIgnoreFileReadMessage,
				zap.String("path", ignoreFilePath), zap.Error(closeError))
		}
		parsedRules = append(parsedRules, fileRules...)
	}
	if len(parsedRules) == 0 {
		return nil
	}

	compilableRules := make([]pathrules.Rule, 0, len(parsedRules))
	for _, parsedRule := range parsedRules {
		if _, compileError := pathrules.NewMatcher([]pathrules.Rule{parsedRule}, matcherOptions()); compileError != nil {
			ruleSet.logger.Warn(warningMalformedPatternMessage,
				zap.String("pattern", parsedRule.Pattern),
				zap.String("directory", relativeDirectoryPath),
				zap.Error(compileError))
			continue
		}
		compilableRules = append(compilableRules, parsedRule)
	}
	if len(compilableRules) == 0 {
		return nil
	}

	groupMatcher, buildError := pathrules.NewMatcher(compilableRules, matcherOptions())
	if buildError != nil {
		ruleSet.logger.Warn(warningMalformedPatternMessage,
			zap.String("directory", relativeDirectoryPath), zap.Error(buildError))
		return nil
	}
	return &Group{Directory: relativeDirectoryPath, Depth: depth, matcher: groupMatcher}
}

// IsExcluded reports whether the entry at relativePath is excluded.
//
// Precedence, highest to lowest: user exclude globs (never overridable), the
// built-in .git rule, then ignore-file groups from deepest to shallowest. The
// first group with any matching rule decides; within a group the last
// matching line wins, so a later "!" negation re-includes. The traversal root
// itself is never excluded.
func (ruleSet *Set) IsExcluded(relativePath string, isDir bool, stack Stack) bool {
	if relativePath == "" || relativePath == "." {
		return false
	}

	if ruleSet.excludeMatcher != nil {
		if decision := ruleSet.excludeMatcher.Decide(relativePath, isDir); decision.Matched && !decision.Included {
			return true
		}
	}

	if !ruleSet.allowGitTraversal && isDir && path.Base(relativePath) == GitDirectoryName {
		return true
	}

	for stackIndex := len(stack) - 1; stackIndex >= 0; stackIndex-- {
		activeGroup := stack[stackIndex]
		scopedPath, inScope := activeGroup.scopedPath(relativePath)
		if !inScope {
			continue
		}
		decision := activeGroup.matcher.Decide(scopedPath, isDir)
		if decision.Matched {
			return !decision.Included
		}
	}
	return false
}

// scopedPath rewrites relativePath to be relative to the group's declaring
// directory, since ignore-file patterns are anchored there.
func (group *Group) scopedPath(relativePath string) (string, bool) {
	if group.Directory == "" || group.Directory == "." {
		return relativePath, true
	}
	scopePrefix := group.Directory + "/"
	if !strings.HasPrefix(relativePath, scopePrefix) {
		return "", false
	}
	return strings.TrimPrefix(relativePath, scopePrefix), true
}

// matcherOptions returns the shared matcher configuration: unmatched paths
// stay included.
func matcherOptions() pathrules.MatcherOptions {
	return pathrules.MatcherOptions{DefaultAction: pathrules.ActionInclude}
}
