package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/executiveusa/agentvault"
)

var getCmd = &cobra.Command{
	Use:   "get <category> <key>",
	Short: "Print a secret value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, key := args[0], args[1]

		return withUnlockedVault(func(c *agentvault.Client) error {
			entry, err := c.GetEntry(category, key)
			if errors.Is(err, agentvault.ErrSecretNotFound) {
				return fmt.Errorf("no secret at %s/%s", category, key)
			}
			if err != nil {
				return err
			}
			fmt.Println(entry.Value)
			return nil
		})
	},
}
