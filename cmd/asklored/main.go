package main

import (
	"fmt"
	"os"

	"github.com/asklore/asklore/internal/cli"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "asklored",
		Short:   "askLore daemon and CLI",
		Long:    "askLore daemon for serving retrieval-grounded answers over ingested sources",
		Version: version,
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.LoadCmd())
	rootCmd.AddCommand(cli.AskCmd())
	rootCmd.AddCommand(cli.StatusCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
