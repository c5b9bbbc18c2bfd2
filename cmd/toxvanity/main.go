package main

import (
	"os"

	"ToxVanity/internal/cli"
)

func main() {
	os.Exit(cli.NewRunner().Run(os.Args[1:]))
}
