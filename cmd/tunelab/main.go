package main

import (
	"context"
	"fmt"
	"os"

	"tunelab/internal/cli"
)

func main() {
	cmd := cli.NewRootCmd(cli.Options{})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
