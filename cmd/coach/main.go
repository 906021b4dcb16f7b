// Command coach generates and runs adaptive resistance-training cycles.
package main

import (
	"os"

	"github.com/mesh-intelligence/cyclecoach/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
