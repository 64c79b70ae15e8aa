// Command exemplar records invocation examples from event logs.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/exemplar/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
