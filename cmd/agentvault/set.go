package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/executiveusa/agentvault"
)

var setType string

func init() {
	setCmd.Flags().StringVar(&setType, "type", "", "declared secret type (e.g. api_key, password, token)")
}

var setCmd = &cobra.Command{
	Use:   "set <category> <key> [value]",
	Short: "Store a secret (prompts for the value if not given)",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, key := args[0], args[1]

		var value string
		if len(args) == 3 {
			value = args[2]
		} else {
			var err error
			value, err = promptPassword("Secret value: ")
			if err != nil {
				return err
			}
		}

		return withUnlockedVault(func(c *agentvault.Client) error {
			if err := c.AddSecretEntry(category, key, value, setType, nil); err != nil {
				return err
			}
			fmt.Printf("%s Stored %s/%s\n", successPrefix(), category, key)
			return nil
		})
	},
}
