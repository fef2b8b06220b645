package main

import (
	"os"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
