package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/executiveusa/agentvault"
)

var rotateCmd = &cobra.Command{
	Use:   "rotate <category> <key> [new-value]",
	Short: "Rotate a secret, keeping the old value in history",
	Long: `Replaces the live value at <category>/<key>. The previous value, if any,
is preserved under the companion history category "_history_<category>"
with a timestamp-suffixed key before the live slot is overwritten.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, key := args[0], args[1]

		var newValue string
		if len(args) == 3 {
			newValue = args[2]
		} else {
			var err error
			newValue, err = promptPassword("New value: ")
			if err != nil {
				return err
			}
		}

		return withUnlockedVault(func(c *agentvault.Client) error {
			if err := c.RotateSecret(category, key, newValue); err != nil {
				return err
			}
			fmt.Printf("%s Rotated %s/%s (previous value kept in %s)\n",
				successPrefix(), category, key, agentvault.HistoryCategory(category))
			return nil
		})
	},
}
