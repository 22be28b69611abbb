// Package main provides the entry point for the gcpmark command.
package main

import (
	"context"
	"os"

	"gcp-marker/internal/cli"
	"gcp-marker/internal/version"

	"github.com/charmbracelet/fang"
)

func main() {
	root := cli.NewRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version.Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
