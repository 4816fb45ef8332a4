package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// foldersCmd represents the folders command
var foldersCmd = &cobra.Command{
	Use:   "folders [folder-id]",
	Short: "List the contents of a folder",
	Long:  `List the objects in a folder. Without a folder id the root folder is listed.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFolders,
}

// elementsCmd represents the elements command
var elementsCmd = &cobra.Command{
	Use:   "elements <attribute-id>",
	Short: "List the elements of an attribute",
	Args:  cobra.ExactArgs(1),
	RunE:  runElements,
}

// attributeCmd represents the attribute command
var attributeCmd = &cobra.Command{
	Use:   "attribute <attribute-id>...",
	Short: "Look up attributes by id",
	Long:  `Look up one or more attributes by id. Lookups run concurrently and are printed in argument order.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAttribute,
}

func init() {
	rootCmd.AddCommand(foldersCmd)
	rootCmd.AddCommand(elementsCmd)
	rootCmd.AddCommand(attributeCmd)
}

func runFolders(cmd *cobra.Command, args []string) error {
	var folderID string
	if len(args) > 0 {
		folderID = args[0]
	}

	items, err := client.FolderContents(cmd.Context(), folderID)
	if err != nil {
		return fmt.Errorf("failed to browse folder: %w", err)
	}

	logger.Debug().Str("folder", folderID).Int("items", len(items)).Msg("Folder listed")

	return newPrinter(cmd).Folder(items)
}

func runElements(cmd *cobra.Command, args []string) error {
	elements, err := client.ListElements(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list elements: %w", err)
	}

	if len(elements) == 0 {
		logger.Warn().Str("attribute", args[0]).Msg("No elements returned")
	}

	return newPrinter(cmd).Elements(elements)
}

func runAttribute(cmd *cobra.Command, args []string) error {
	attrs, err := client.GetAttributes(cmd.Context(), args...)
	if err != nil {
		return fmt.Errorf("failed to look up attributes: %w", err)
	}

	return newPrinter(cmd).Attributes(attrs)
}
