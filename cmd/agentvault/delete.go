package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/executiveusa/agentvault"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <category> <key>",
	Aliases: []string{"rm"},
	Short:   "Delete a secret",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, key := args[0], args[1]

		return withUnlockedVault(func(c *agentvault.Client) error {
			err := c.DeleteSecret(category, key)
			if errors.Is(err, agentvault.ErrSecretNotFound) {
				return fmt.Errorf("no secret at %s/%s", category, key)
			}
			if err != nil {
				return err
			}
			fmt.Printf("%s Deleted %s/%s\n", successPrefix(), category, key)
			return nil
		})
	},
}
