package main

import (
	"fmt"
	"os"

	"reincarnate/cmd/reincarnate-dump/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
