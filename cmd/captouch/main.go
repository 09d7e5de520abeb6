// Command captouch drives the simulated capacitive touch capture engine.
package main

import (
	"fmt"
	"os"

	"github.com/Acathla-fr/MutCapTouch/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
