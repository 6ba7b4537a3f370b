package main

import (
	"fmt"
	"os"

	"github.com/benvon/portfolio-api/cmd/gitstats/commands"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
