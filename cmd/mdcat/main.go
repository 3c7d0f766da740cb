package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/thecodeteam/goodbye"

	"github.com/elseano/mdcat/cmd/mdcat/cmd"
)

var GitCommit string
var Version string

func main() {
	// Writes to a closed pipe must fail with EPIPE instead of killing the process.
	signal.Ignore(syscall.SIGPIPE)

	ctx := context.Background()
	goodbye.Notify(ctx)

	cmd.Version = Version
	cmd.GitCommit = GitCommit

	err := cmd.Execute(Version, GitCommit)
	goodbye.Exit(ctx, cmd.ExitCode(err))
}
