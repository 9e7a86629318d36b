package rules_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cunw/cunw/internal/rules"
)

// newTestSet builds a Set with a no-op logger, failing the test on error.
func newTestSet(testingHandle *testing.T, excludeGlobs []string, considerIgnoreFiles bool, allowGitTraversal bool) *rules.Set {
	testingHandle.Helper()
	ruleSet, buildError := rules.NewSet(excludeGlobs, considerIgnoreFiles, allowGitTraversal, zap.NewNop())
	require.NoError(testingHandle, buildError)
	return ruleSet
}

// writeIgnoreFile creates an ignore file with the given lines.
func writeIgnoreFile(testingHandle *testing.T, directoryPath string, fileName string, lines string) {
	testingHandle.Helper()
	require.NoError(testingHandle, os.WriteFile(filepath.Join(directoryPath, fileName), []byte(lines), 0o644))
}

// TestNewSetRejectsInvalidExcludePattern verifies that an uncompilable exclude
// glob fails Set construction.
func TestNewSetRejectsInvalidExcludePattern(testingHandle *testing.T) {
	_, buildError := rules.NewSet([]string{"[z-a]"}, true, false, zap.NewNop())
	require.Error(testingHandle, buildError)
	require.Contains(testingHandle, buildError.Error(), "[z-a]")
}

// TestRootNeverExcluded verifies the traversal root survives every rule.
func TestRootNeverExcluded(testingHandle *testing.T) {
	ruleSet := newTestSet(testingHandle, []string{"*"}, true, false)
	require.False(testingHandle, ruleSet.IsExcluded(".", true, nil))
	require.False(testingHandle, ruleSet.IsExcluded("", true, nil))
}

// TestExcludeGlobs verifies user glob matching on names and nested paths.
func TestExcludeGlobs(testingHandle *testing.T) {
	ruleSet := newTestSet(testingHandle, []string{"vendor", "*.log", "./docs/build"}, true, false)

	testCases := []struct {
		name             string
		relativePath     string
		isDirectory      bool
		expectedExcluded bool
	}{
		{name: "DirectoryByName", relativePath: "vendor", isDirectory: true, expectedExcluded: true},
		{name: "NestedDirectoryByName", relativePath: "third_party/vendor", isDirectory: true, expectedExcluded: true},
		{name: "FileByGlob", relativePath: "debug.log", isDirectory: false, expectedExcluded: true},
		{name: "NestedFileByGlob", relativePath: "logs/app.log", isDirectory: false, expectedExcluded: true},
		{name: "DotSlashPrefixStripped", relativePath: "docs/build", isDirectory: true, expectedExcluded: true},
		{name: "UnmatchedFile", relativePath: "main.go", isDirectory: false, expectedExcluded: false},
	}

	for _, testCase := range testCases {
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			excluded := ruleSet.IsExcluded(testCase.relativePath, testCase.isDirectory, nil)
			require.Equal(testingHandle, testCase.expectedExcluded, excluded)
		})
	}
}

// TestBuiltInGitRule verifies the implicit .git directory exclusion and its
// --git override.
func TestBuiltInGitRule(testingHandle *testing.T) {
	defaultSet := newTestSet(testingHandle, nil, true, false)
	require.True(testingHandle, defaultSet.IsExcluded(".git", true, nil))
	require.True(testingHandle, defaultSet.IsExcluded("sub/.git", true, nil))
	require.False(testingHandle, defaultSet.IsExcluded(".git", false, nil), "a file named .git is not the rule's target")

	permissiveSet := newTestSet(testingHandle, nil, true, true)
	require.False(testingHandle, permissiveSet.IsExcluded(".git", true, nil))
}

// TestGroupNegationLastMatchWins verifies that within one group the last
// matching line decides.
func TestGroupNegationLastMatchWins(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeIgnoreFile(testingHandle, rootDirectory, rules.GitIgnoreFileName, "*.log\n!important.log\n")

	ruleSet := newTestSet(testingHandle, nil, true, false)
	group := ruleSet.LoadDirectoryGroup(rootDirectory, ".", 0)
	require.NotNil(testingHandle, group)

	stack := rules.Stack{}.Push(group)
	require.True(testingHandle, ruleSet.IsExcluded("debug.log", false, stack))
	require.False(testingHandle, ruleSet.IsExcluded("important.log", false, stack))
}

// TestDeeperGroupDecidesFirst verifies that the deepest group with a matching
// rule overrides shallower groups.
func TestDeeperGroupDecidesFirst(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	nestedDirectory := filepath.Join(rootDirectory, "sub")
	require.NoError(testingHandle, os.MkdirAll(nestedDirectory, 0o755))
	writeIgnoreFile(testingHandle, rootDirectory, rules.GitIgnoreFileName, "*.log\n")
	writeIgnoreFile(testingHandle, nestedDirectory, rules.GitIgnoreFileName, "!app.log\n")

	ruleSet := newTestSet(testingHandle, nil, true, false)
	rootGroup := ruleSet.LoadDirectoryGroup(rootDirectory, ".", 0)
	nestedGroup := ruleSet.LoadDirectoryGroup(nestedDirectory, "sub", 1)
	require.NotNil(testingHandle, rootGroup)
	require.NotNil(testingHandle, nestedGroup)

	stack := rules.Stack{}.Push(rootGroup).Push(nestedGroup)
	require.False(testingHandle, ruleSet.IsExcluded("sub/app.log", false, stack))
	require.True(testingHandle, ruleSet.IsExcluded("sub/other.log", false, stack))
}

// TestGroupScopedToDeclaringDirectory verifies nested group patterns are
// anchored at their declaring directory and never leak upward.
func TestGroupScopedToDeclaringDirectory(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	nestedDirectory := filepath.Join(rootDirectory, "sub")
	require.NoError(testingHandle, os.MkdirAll(nestedDirectory, 0o755))
	writeIgnoreFile(testingHandle, nestedDirectory, rules.GitIgnoreFileName, "secret.txt\n")

	ruleSet := newTestSet(testingHandle, nil, true, false)
	nestedGroup := ruleSet.LoadDirectoryGroup(nestedDirectory, "sub", 1)
	require.NotNil(testingHandle, nestedGroup)

	stack := rules.Stack{}.Push(nestedGroup)
	require.True(testingHandle, ruleSet.IsExcluded("sub/secret.txt", false, stack))
	require.False(testingHandle, ruleSet.IsExcluded("secret.txt", false, stack))
	require.False(testingHandle, ruleSet.IsExcluded("other/secret.txt", false, stack))
}

// TestExcludeGlobBeatsNegation verifies a user exclude glob cannot be
// re-included by an ignore-file negation.
func TestExcludeGlobBeatsNegation(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeIgnoreFile(testingHandle, rootDirectory, rules.GitIgnoreFileName, "!keep.txt\n")

	ruleSet := newTestSet(testingHandle, []string{"keep.txt"}, true, false)
	group := ruleSet.LoadDirectoryGroup(rootDirectory, ".", 0)
	require.NotNil(testingHandle, group)

	stack := rules.Stack{}.Push(group)
	require.True(testingHandle, ruleSet.IsExcluded("keep.txt", false, stack))
}

// TestIgnoreFileOverridesGitIgnore verifies .ignore lines follow .gitignore
// lines inside one group, so they win under last-match-wins.
func TestIgnoreFileOverridesGitIgnore(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeIgnoreFile(testingHandle, rootDirectory, rules.GitIgnoreFileName, "generated.go\n")
	writeIgnoreFile(testingHandle, rootDirectory, rules.IgnoreFileName, "!generated.go\n")

	ruleSet := newTestSet(testingHandle, nil, true, false)
	group := ruleSet.LoadDirectoryGroup(rootDirectory, ".", 0)
	require.NotNil(testingHandle, group)

	stack := rules.Stack{}.Push(group)
	require.False(testingHandle, ruleSet.IsExcluded("generated.go", false, stack))
}

// TestMalformedIgnoreLineSkipped verifies an uncompilable line drops without
// discarding the rest of the group.
func TestMalformedIgnoreLineSkipped(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	writeIgnoreFile(testingHandle, rootDirectory, rules.GitIgnoreFileName, "[z-a]\n*.tmp\n")

	ruleSet := newTestSet(testingHandle, nil, true, false)
	group := ruleSet.LoadDirectoryGroup(rootDirectory, ".", 0)
	require.NotNil(testingHandle, group)

	stack := rules.Stack{}.Push(group)
	require.True(testingHandle, ruleSet.IsExcluded("scratch.tmp", false, stack))
}

// TestLoadDirectoryGroupAbsent verifies nil groups for directories without
// ignore files and for disabled ignore-file handling.
func TestLoadDirectoryGroupAbsent(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()

	enabledSet := newTestSet(testingHandle, nil, true, false)
	require.Nil(testingHandle, enabledSet.LoadDirectoryGroup(rootDirectory, ".", 0))

	writeIgnoreFile(testingHandle, rootDirectory, rules.GitIgnoreFileName, "*.log\n")
	disabledSet := newTestSet(testingHandle, nil, false, false)
	require.False(testingHandle, disabledSet.ConsidersIgnoreFiles())
	require.Nil(testingHandle, disabledSet.LoadDirectoryGroup(rootDirectory, ".", 0))
}

// TestStackPushDoesNotMutateReceiver verifies sibling frames never observe
// each other's pushed groups.
func TestStackPushDoesNotMutateReceiver(testingHandle *testing.T) {
	rootDirectory := testingHandle.TempDir()
	firstDirectory := filepath.Join(rootDirectory, "first")
	secondDirectory := filepath.Join(rootDirectory, "second")
	require.NoError(testingHandle, os.MkdirAll(firstDirectory, 0o755))
	require.NoError(testingHandle, os.MkdirAll(secondDirectory, 0o755))
	writeIgnoreFile(testingHandle, firstDirectory, rules.GitIgnoreFileName, "a.txt\n")
	writeIgnoreFile(testingHandle, secondDirectory, rules.GitIgnoreFileName, "b.txt\n")

	ruleSet := newTestSet(testingHandle, nil, true, false)
	baseStack := rules.Stack{}
	firstStack := baseStack.Push(ruleSet.LoadDirectoryGroup(firstDirectory, "first", 1))
	secondStack := baseStack.Push(ruleSet.LoadDirectoryGroup(secondDirectory, "second", 1))

	require.Len(testingHandle, baseStack, 0)
	require.True(testingHandle, ruleSet.IsExcluded("first/a.txt", false, firstStack))
	require.False(testingHandle, ruleSet.IsExcluded("first/a.txt", false, secondStack))
	require.True(testingHandle, ruleSet.IsExcluded("second/b.txt", false, secondStack))
}
