package main

import (
	"os"

	"github.com/devraulu/martiball/pkg/cli"
)

func main() {
	os.Exit(cli.Run(cli.NewFeedCmd()))
}
