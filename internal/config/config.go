// Package config loads application defaults from an optional .cunw.yaml file
// and validates the traversal root.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configurationFileBaseName = ".cunw"
	configurationFileType     = "yaml"

	errorRootMissingFormat  = "root path %q does not exist"
	errorRootStatFormat     = "stat root path %q: %w"
	errorRootNotDirFormat   = "root path %q is not a directory"
	errorRootAbsoluteFormat = "resolving root path %q: %w"
	errorReadConfigFormat   = "reading configuration file: %w"
	errorDecodeConfigFormat = "decoding configuration file: %w"
)

// FileConfiguration holds defaults read from .cunw.yaml. Flags set on the
// command line take precedence over every field.
type FileConfiguration struct {
	// Output is the default destination path for the assembled payload.
	Output string `mapstructure:"output"`
	// Exclude lists exclude globs applied on every run.
	Exclude []string `mapstructure:"exclude"`
	// MaxConcurrentReads bounds in-flight content loads.
	MaxConcurrentReads int `mapstructure:"max_concurrent_reads"`
	// Tokens configures the token-count summary.
	Tokens TokenConfiguration `mapstructure:"tokens"`
	// Clipboard copies the payload to the system clipboard when true.
	Clipboard *bool `mapstructure:"clipboard"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	// Enabled switches the token-count summary on by default.
	Enabled *bool `mapstructure:"enabled"`
	// Model names the tokenizer model.
	Model string `mapstructure:"model"`
}

// LoadFileConfiguration reads .cunw.yaml from the working directory or the
// home directory. A missing file yields the zero configuration; a present but
// unreadable or malformed file is a configuration error.
func LoadFileConfiguration(workingDirectory string) (FileConfiguration, error) {
	var fileConfiguration FileConfiguration

	viperInstance := viper.New()
	viperInstance.SetConfigName(configurationFileBaseName)
	viperInstance.SetConfigType(configurationFileType)
	viperInstance.AddConfigPath(workingDirectory)
	if homeDirectory, homeError := os.UserHomeDir(); homeError == nil {
		viperInstance.AddConfigPath(homeDirectory)
	}

	if readError := viperInstance.ReadInConfig(); readError != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(readError, &configFileNotFound) {
			return fileConfiguration, nil
		}
		return fileConfiguration, fmt.Errorf(errorReadConfigFormat, readError)
	}
	if decodeError := viperInstance.Unmarshal(&fileConfiguration); decodeError != nil {
		return fileConfiguration, fmt.Errorf(errorDecodeConfigFormat, decodeError)
	}
	return fileConfiguration, nil
}

// ResolveRoot validates the traversal root and returns its absolute cleaned
// path. Behavior downstream is identical whether the root was given as ".",
// "./", or an absolute path, because every consumer sees this resolved form.
func ResolveRoot(rootArgument string) (string, error) {
	absoluteRoot, absoluteError := filepath.Abs(rootArgument)
	if absoluteError != nil {
		return "", fmt.Errorf(errorRootAbsoluteFormat, rootArgument, absoluteError)
	}
	cleanRoot := filepath.Clean(absoluteRoot)

	rootInformation, statError := os.Stat(cleanRoot)
	if statError != nil {
		if os.IsNotExist(statError) {
			return "", fmt.Errorf(errorRootMissingFormat, rootArgument)
		}
		return "", fmt.Errorf(errorRootStatFormat, rootArgument, statError)
	}
	if !rootInformation.IsDir() {
		return "", fmt.Errorf(errorRootNotDirFormat, rootArgument)
	}
	return cleanRoot, nil
}
