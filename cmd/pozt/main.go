package main

import (
	"os"

	"github.com/lilseedabe/pozt/cmd/pozt/cmd"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(cmd.Execute(cmd.BuildInfo{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit}))
}
