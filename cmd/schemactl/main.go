package main

import (
	"log"

	"github.com/spf13/cobra"
)

var (
	envFlag     string
	fileFlag    string
	dirFlag     string
	nameFlag    string
	sourceFlag  string
	versionFlag string

	app *application
)

var rootCmd = &cobra.Command{
	Use:   "schemactl",
	Short: "Metadata schema resolution tool",
	Long: `Metadata schema resolution tool.
Validates, stores and resolves schema documents describing database
collections (Database) and in-memory metadata views (Metadata).`,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
	SilenceUsage:      true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&envFlag, "env", "e", "dev", "Environment to use (dev, test, prod)")
	flags.StringVarP(&fileFlag, "file", "f", "", "Schema document path (overrides SCHEMA_FILE)")
	flags.StringVar(&dirFlag, "dir", "", "Directory of <name>.yaml documents (overrides SCHEMA_DIR)")
	flags.StringVarP(&nameFlag, "name", "n", "", "Schema document name (overrides SCHEMA_NAME)")
	flags.StringVar(&sourceFlag, "source", "", "Schema source: file, postgres or sqlite (overrides SCHEMA_SOURCE)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Failed to execute command: %v", err)
	}
}
