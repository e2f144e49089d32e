package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/executiveusa/agentvault"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List secret keys per category (values are never shown)",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withUnlockedVault(func(c *agentvault.Client) error {
			listed, err := c.ListSecrets()
			if err != nil {
				return err
			}
			if len(listed) == 0 {
				fmt.Println("vault is empty")
				return nil
			}

			categories := make([]string, 0, len(listed))
			for cat := range listed {
				categories = append(categories, cat)
			}
			sort.Strings(categories)

			for _, cat := range categories {
				fmt.Println(color.CyanString(cat))
				for _, key := range listed[cat] {
					fmt.Printf("  %s\n", key)
				}
			}
			return nil
		})
	},
}
