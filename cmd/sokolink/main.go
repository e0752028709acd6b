// Command sokolink runs the Soko Link marketplace daemon and its CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:           "sokolink",
	Short:         "Soko Link — local marketplace for businesses and second-hand items",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(itemsCmd)
	rootCmd.AddCommand(inboxCmd)
	rootCmd.AddCommand(roleCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(assistCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
