package main

import (
	"fmt"
	"os"

	"aitranscribe/cmd/aitranscribe/cmd"
	"aitranscribe/internal/config"
)

func main() {
	// A missing .env is fine; a broken one is only a warning.
	if _, err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Configuration Warning: %v\n", err)
	}

	cmd.Execute()
}
