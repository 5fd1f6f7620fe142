// Command longevity runs one scheduled scenario inside its time window.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/longevity/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
