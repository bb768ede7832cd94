package main

import (
	"context"
	"fmt"
	"os"

	"stock-dashboard/internal/cli"
	apperrors "stock-dashboard/internal/errors"
)

func main() {
	rootCmd := cli.NewRootCmd(&cli.App{})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", apperrors.UserMessage(err))
		os.Exit(1)
	}
}
