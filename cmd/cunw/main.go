package main

import (
	"fmt"
	"os"

	"github.com/cunw/cunw/internal/cli"
)

const executionFailedPrefix = "cunw: "

// main is the entry point for the cunw command.
func main() {
	if applicationExecutionError := cli.Execute(); applicationExecutionError != nil {
		fmt.Fprintln(os.Stderr, executionFailedPrefix+applicationExecutionError.Error())
		os.Exit(1)
	}
}
