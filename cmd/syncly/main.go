package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/jayp120/syncly/internal/cli"
)

func main() {
	// Local development overrides; a missing .env is fine.
	_ = godotenv.Load()

	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
