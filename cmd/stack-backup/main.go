package main

import (
	"os"

	"stack-backup/src/cli"
)

func main() {
	os.Exit(cli.Execute())
}
