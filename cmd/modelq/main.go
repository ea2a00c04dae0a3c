// Command modelq loads models conforming to a CUE metamodel and queries
// their instances by type.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/modelq/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// Commands print results and errors to stdout in the chosen format;
		// stderr always gets the reason for a non-zero exit.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
