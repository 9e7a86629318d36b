// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cunw/cunw/internal/builder"
	"github.com/cunw/cunw/internal/config"
	"github.com/cunw/cunw/internal/format"
	"github.com/cunw/cunw/internal/services/clipboard"
	"github.com/cunw/cunw/internal/tokenizer"
	"github.com/cunw/cunw/internal/utils"
	"github.com/cunw/cunw/internal/walker"
)

const (
	rootUse              = "cunw [path]"
	rootShortDescription = "concatenate a codebase into a single prompt-ready file"
	rootLongDescription  = `cunw walks a directory tree once, filters it through exclude globs and
per-directory ignore files, and writes a directory diagram followed by the
content of every surviving file, each block tagged with its relative path.
The result is a single text payload ready to paste into an LLM prompt.`
	rootUsageExample = `  # Pack the current directory into output.txt
  cunw

  # Write to stdout, skipping vendored and generated trees
  cunw -o - -e vendor -e "*.pb.go" .

  # Pack a project two levels deep and copy the result to the clipboard
  cunw --max-depth 2 --clipboard ~/src/project`

	outputFlagName          = "output"
	outputFlagShorthand     = "o"
	excludeFlagName         = "exclude"
	excludeFlagShorthand    = "e"
	noIgnoreFilesFlagName   = "no-ignore-files"
	includeGitFlagName      = "git"
	maxDepthFlagName        = "max-depth"
	maxDepthFlagShorthand   = "m"
	followSymlinksFlagName  = "follow-symlinks"
	followSymlinksShorthand = "f"
	exitOnNonUTF8FlagName   = "exit-on-non-utf8"
	tokensFlagName          = "tokens"
	modelFlagName           = "model"
	clipboardFlagName       = "clipboard"
	verboseFlagName         = "verbose"
	verboseFlagShorthand    = "v"
	versionFlagName         = "version"

	outputFlagDescription         = "output file path, \"-\" writes to stdout"
	excludeFlagDescription        = "exclude glob pattern, repeatable"
	noIgnoreFilesFlagDescription  = "do not read .gitignore and .ignore files"
	includeGitFlagDescription     = "traverse .git directories"
	maxDepthFlagDescription       = "maximum traversal depth, negative means unbounded"
	followSymlinksFlagDescription = "descend into symlinked directories"
	exitOnNonUTF8FlagDescription  = "fail instead of marking non-UTF-8 files inline"
	tokensFlagDescription         = "log a token-count summary of the payload"
	modelFlagDescription          = "tokenizer model used for token counting"
	clipboardFlagDescription      = "also copy the payload to the system clipboard"
	verboseFlagDescription        = "enable debug logging"
	versionFlagDescription        = "display application version"

	versionTemplate       = "cunw version: %s\n"
	defaultRootPath       = "."
	defaultOutputPath     = "output.txt"
	stdoutOutputPath      = "-"
	outputFilePermissions = 0o644

	errorWriteOutputFormat      = "writing output file %s: %w"
	errorWriteStdoutFormat      = "writing to stdout: %w"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"

	warningTokenCountMessage = "failed to count tokens"
	warningClipboardMessage  = "failed to copy payload to clipboard"
	infoPayloadWrittenMsg    = "payload written"
	infoTokenCountMessage    = "token count"
)

// runOptions collects every flag value of the root command.
type runOptions struct {
	outputPath          string
	excludePatterns     []string
	disableIgnoreFiles  bool
	includeGitDirectory bool
	maxDepth            int
	followSymlinks      bool
	exitOnNonUTF8       bool
	countTokens         bool
	tokenizerModel      string
	copyToClipboard     bool
	verbose             bool
}

// Execute runs the cunw application.
func Execute() error {
	rootCommand := createRootCommand()
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand() *cobra.Command {
	var options runOptions
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			rootArgument := defaultRootPath
			if len(arguments) == 1 {
				rootArgument = arguments[0]
			}
			return runPack(command, rootArgument, options)
		},
	}

	rootCommand.Flags().StringVarP(&options.outputPath, outputFlagName, outputFlagShorthand, defaultOutputPath, outputFlagDescription)
	rootCommand.Flags().StringArrayVarP(&options.excludePatterns, excludeFlagName, excludeFlagShorthand, nil, excludeFlagDescription)
	rootCommand.Flags().BoolVar(&options.disableIgnoreFiles, noIgnoreFilesFlagName, false, noIgnoreFilesFlagDescription)
	rootCommand.Flags().BoolVar(&options.includeGitDirectory, includeGitFlagName, false, includeGitFlagDescription)
	rootCommand.Flags().IntVarP(&options.maxDepth, maxDepthFlagName, maxDepthFlagShorthand, walker.UnboundedDepth, maxDepthFlagDescription)
	rootCommand.Flags().BoolVarP(&options.followSymlinks, followSymlinksFlagName, followSymlinksShorthand, false, followSymlinksFlagDescription)
	rootCommand.Flags().BoolVar(&options.exitOnNonUTF8, exitOnNonUTF8FlagName, false, exitOnNonUTF8FlagDescription)
	rootCommand.Flags().BoolVar(&options.countTokens, tokensFlagName, false, tokensFlagDescription)
	rootCommand.Flags().StringVar(&options.tokenizerModel, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	rootCommand.Flags().BoolVar(&options.copyToClipboard, clipboardFlagName, false, clipboardFlagDescription)
	rootCommand.Flags().BoolVarP(&options.verbose, verboseFlagName, verboseFlagShorthand, false, verboseFlagDescription)
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	return rootCommand
}

// applyFileConfiguration fills options from .cunw.yaml for every flag the user
// did not set on the command line. Configured exclude globs are merged with
// flag globs rather than replaced.
func applyFileConfiguration(command *cobra.Command, options *runOptions, fileConfiguration config.FileConfiguration) {
	commandFlags := command.Flags()

	if !commandFlags.Changed(outputFlagName) && fileConfiguration.Output != "" {
		options.outputPath = fileConfiguration.Output
	}
	if len(fileConfiguration.Exclude) > 0 {
		options.excludePatterns = utils.DeduplicatePatterns(append(options.excludePatterns, fileConfiguration.Exclude...))
	}
	if !commandFlags.Changed(tokensFlagName) && fileConfiguration.Tokens.Enabled != nil {
		options.countTokens = *fileConfiguration.Tokens.Enabled
	}
	if !commandFlags.Changed(modelFlagName) && fileConfiguration.Tokens.Model != "" {
		options.tokenizerModel = fileConfiguration.Tokens.Model
	}
	if !commandFlags.Changed(clipboardFlagName) && fileConfiguration.Clipboard != nil {
		options.copyToClipboard = *fileConfiguration.Clipboard
	}
}

// runPack executes one packing run end to end.
func runPack(command *cobra.Command, rootArgument string, options runOptions) error {
	loggerInstance, loggerError := utils.NewApplicationLogger(options.verbose)
	if loggerError != nil {
		return loggerError
	}
	defer loggerInstance.Sync()

	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}
	fileConfiguration, fileConfigurationError := config.LoadFileConfiguration(workingDirectory)
	if fileConfigurationError != nil {
		return fileConfigurationError
	}
	applyFileConfiguration(command, &options, fileConfiguration)

	resolvedRoot, rootError := config.ResolveRoot(rootArgument)
	if rootError != nil {
		return rootError
	}

	maxConcurrentReads := builder.DefaultMaxConcurrentReads
	if fileConfiguration.MaxConcurrentReads > 0 {
		maxConcurrentReads = fileConfiguration.MaxConcurrentReads
	}

	buildConfiguration := builder.Config{
		RootPath:            resolvedRoot,
		MaxDepth:            options.maxDepth,
		FollowSymlinks:      options.followSymlinks,
		AllowGitTraversal:   options.includeGitDirectory,
		ConsiderIgnoreFiles: !options.disableIgnoreFiles,
		ExcludeGlobs:        options.excludePatterns,
		ExitOnNonText:       options.exitOnNonUTF8,
		MaxConcurrentReads:  maxConcurrentReads,
	}
	containerTree, buildError := builder.Build(context.Background(), buildConfiguration, loggerInstance)
	if buildError != nil {
		return buildError
	}

	payload := format.Render(containerTree)

	if options.countTokens {
		logTokenCount(loggerInstance, payload, options.tokenizerModel)
	}
	if writeError := writePayload(payload, options.outputPath); writeError != nil {
		return writeError
	}
	if options.outputPath != stdoutOutputPath {
		loggerInstance.Info(infoPayloadWrittenMsg, zap.String("path", options.outputPath), zap.Int("bytes", len(payload)))
	}
	if options.copyToClipboard {
		if clipboardError := clipboard.NewService().Copy(payload); clipboardError != nil {
			loggerInstance.Warn(warningClipboardMessage, zap.Error(clipboardError))
		}
	}
	return nil
}

// logTokenCount emits the token-count summary. Counting failures are logged
// and never fail the run.
func logTokenCount(loggerInstance *zap.Logger, payload string, model string) {
	tokenCounter, counterError := tokenizer.NewCounter(model)
	if counterError != nil {
		loggerInstance.Warn(warningTokenCountMessage, zap.Error(counterError))
		return
	}
	tokenCount, countError := tokenCounter.CountString(payload)
	if countError != nil {
		loggerInstance.Warn(warningTokenCountMessage, zap.Error(countError))
		return
	}
	loggerInstance.Info(infoTokenCountMessage, zap.Int("tokens", tokenCount), zap.String("model", tokenCounter.Name()))
}

// writePayload writes the payload to the configured destination. The path "-"
// selects stdout.
func writePayload(payload string, outputPath string) error {
	if outputPath == stdoutOutputPath {
		if _, writeError := os.Stdout.WriteString(payload); writeError != nil {
			return fmt.Errorf(errorWriteStdoutFormat, writeError)
		}
		return nil
	}
	if writeError := os.WriteFile(outputPath, []byte(payload), outputFilePermissions); writeError != nil {
		return fmt.Errorf(errorWriteOutputFormat, outputPath, writeError)
	}
	return nil
}
