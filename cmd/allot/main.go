// Command allot splits a purchase total across a tree of recipients.
package main

import (
	"os"

	"github.com/roach88/allot/internal/cli"
)

func main() {
	// Commands report their own errors through the output formatter.
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
