package main

import (
	"fmt"
	"os"

	"rundown-orchestrator/internal/cli"
	"rundown-orchestrator/internal/platform/config"
)

func main() {
	_ = config.Load()

	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
