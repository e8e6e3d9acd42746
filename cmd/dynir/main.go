// Command dynir declares IR dialects and parses, prints and verifies
// operations against them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/dynir/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
