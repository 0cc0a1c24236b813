package main

import (
	"os"

	"repo2text/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
