package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var auditLimit int

func init() {
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "number of entries to show (0 for all)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recent audit trail entries, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		defer c.Close()

		events, err := c.AuditEvents(auditLimit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("audit log is empty")
			return nil
		}

		for _, e := range events {
			line := fmt.Sprintf("%s  %-18s", e.Timestamp, e.Event)
			if len(e.Data) > 0 {
				data, err := json.Marshal(e.Data)
				if err == nil {
					line += "  " + string(data)
				}
			}
			fmt.Println(line)
		}
		return nil
	},
}
