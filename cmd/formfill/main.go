package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "formfill",
	Short:        "Fill job-application forms from a resume",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(newFillCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
