// Command frontier scores decision-making units with data envelopment analysis.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/frontier/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
