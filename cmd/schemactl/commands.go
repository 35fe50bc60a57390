package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	outputFlag string
	viewFlag   bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a schema document",
	Long: `Validate a schema document without storing it.
With a path the file is validated; otherwise the configured document is.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [name]",
	Short: "Resolve a stored schema document",
	Long: `Resolve a stored schema document and print its catalogues.
--output summary lists catalogues and defaults, --output yaml prints every
resolved attribute descriptor.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

var describeCmd = &cobra.Command{
	Use:   "describe <collection> [attribute]",
	Short: "Describe a resolved collection, view or attribute",
	Long: `Describe a resolved storage collection (or a view with --view).
With an attribute, which may be an alias, its full descriptor is printed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDescribe,
}

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Store a schema document as a new version",
	Long:  `Validate the document at path and store it under --name as a new version.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var versionsCmd = &cobra.Command{
	Use:   "versions [name]",
	Short: "List the stored versions of a document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVersions,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete every version of a document",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDelete,
}

func init() {
	for _, cmd := range []*cobra.Command{resolveCmd, describeCmd} {
		cmd.Flags().StringVar(&versionFlag, "version", "", "Document version (default: latest)")
	}
	resolveCmd.Flags().StringVarP(&outputFlag, "output", "o", "summary", "Output format: summary or yaml")
	describeCmd.Flags().BoolVar(&viewFlag, "view", false, "Describe a Metadata view instead of a Database collection")
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read schema document: %w", err)
		}
		if err := app.service.ValidateSchema(ctx, string(data)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
		return nil
	}

	name := documentName(nil)
	schema, err := app.service.ReadSchema(ctx, name)
	if err != nil {
		return err
	}
	if err := app.service.ValidateSchema(ctx, schema.Document); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", schema.CacheKey())
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	name := documentName(args)
	schema, err := app.service.Resolve(cmd.Context(), name, versionFlag)
	if err != nil {
		return err
	}

	switch outputFlag {
	case "summary":
		return renderSummary(cmd.OutOrStdout(), name, schema)
	case "yaml":
		return renderYAML(cmd.OutOrStdout(), schema)
	default:
		return fmt.Errorf("unsupported output format: %q (want summary or yaml)", outputFlag)
	}
}

func runDescribe(cmd *cobra.Command, args []string) error {
	schema, err := app.service.Resolve(cmd.Context(), documentName(nil), versionFlag)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if viewFlag {
		view, err := schema.Views.View(args[0])
		if err != nil {
			return err
		}
		if len(args) == 2 {
			return renderViewAttribute(w, view, args[1])
		}
		return renderView(w, view)
	}

	collection, err := schema.Storage.Collection(args[0])
	if err != nil {
		return err
	}
	if len(args) == 2 {
		return renderStorageAttribute(w, collection, args[1])
	}
	return renderCollection(w, collection)
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read schema document: %w", err)
	}

	name := documentName(nil)
	version, err := app.service.WriteSchema(cmd.Context(), name, string(data))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored %s@%s\n", name, version)
	return nil
}

func runVersions(cmd *cobra.Command, args []string) error {
	versions, err := app.service.ListVersions(cmd.Context(), documentName(args))
	if err != nil {
		return err
	}
	return renderVersions(cmd.OutOrStdout(), versions)
}

func runDelete(cmd *cobra.Command, args []string) error {
	name := documentName(args)
	if err := app.service.DeleteSchema(cmd.Context(), name); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
	return nil
}
