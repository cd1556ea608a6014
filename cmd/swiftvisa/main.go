// Command swiftvisa answers visa eligibility questions with retrieval-augmented generation.
package main

import (
	"os"

	"github.com/swiftvisa/swiftvisa-cli/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetFactory(newFactory())

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
