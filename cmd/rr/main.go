// Command rr is the RR compiler and runner: a legacy single-file compile
// at the root, plus `run` and `build` subcommands, built on cobra the way
// Consensys-go-corset structures its own CLI.
package main

// Version is set by ldflags during release builds.
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	Execute()
}
