package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/ava-labs/crank/x/programs/cmd/simulator/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}
