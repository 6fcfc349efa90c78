package main

import (
	"fmt"
	"os"

	"github.com/slateops/slate/cmd/slate/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
