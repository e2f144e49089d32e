package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/executiveusa/agentvault"
)

var searchCaseSensitive bool

func init() {
	searchCmd.Flags().BoolVar(&searchCaseSensitive, "case-sensitive", false, "match case exactly")
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search secret key names (values are never searched)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUnlockedVault(func(c *agentvault.Client) error {
			matches, err := c.SearchSecrets(args[0], searchCaseSensitive)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Println("no matches")
				return nil
			}
			for _, m := range matches {
				fmt.Println(m.Path)
			}
			return nil
		})
	},
}
