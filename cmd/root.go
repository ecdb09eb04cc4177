package cmd

import (
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	configPath string
	verbose    bool
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var rootCmd = &cobra.Command{
	Use:   "upgradecheck",
	Short: "Find newer versions for declared package dependencies",
	Long: `A CLI tool that resolves newer versions for the dependencies declared
in a package.json manifest, under a chosen upgrade policy.

It fetches registry metadata with bounded concurrency, picks a target
version per package (latest tag, greatest, newest, minor, patch, or
within-range), checks peer-dependency constraints, and prints rewritten
version ranges that preserve each declaration's operator style.

Nothing is installed and no files are modified.`,
}

func Execute() error {
	return rootCmd.Execute()
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configPath, "config", "c", "",
		"Path to config file (default: auto-discover upgradecheck.yaml)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false,
		"Enable verbose output",
	)
}
