package main

import (
	"os"

	"chatmetrics/internal/cli"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

func main() {
	cli.SetVersion(version, commit, buildDate)
	if err := cli.Execute(); err != nil {
		os.Stderr.WriteString("chatmetrics: " + err.Error() + "\n")
		os.Exit(1)
	}
}
