package main

import (
	"fmt"
	"os"

	"pokerverse/cmd/pokerverse/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
