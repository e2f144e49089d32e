package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/executiveusa/agentvault"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Bulk import secrets from a JSON file",
	Long: `Reads a JSON file of the shape {"category": {"key": "value", ...}, ...}
and stores every entry. Entries that fail are reported and skipped; the
batch never aborts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		var mapping map[string]map[string]string
		if err := json.Unmarshal(raw, &mapping); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		return withUnlockedVault(func(c *agentvault.Client) error {
			result, err := c.BulkImport(mapping)
			if err != nil {
				return err
			}

			fmt.Printf("%s Imported %d secrets\n", successPrefix(), result.Imported)
			for _, f := range result.Failures {
				fmt.Printf("%s %s/%s: %s\n", errorPrefix(), f.Category, f.Key, f.Reason)
			}
			return nil
		})
	},
}
