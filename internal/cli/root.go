// Package cli wires the command-line interface using Cobra.
package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "zabbix-audit",
		Short: "Forward Zabbix history records to an event index",
		Long: `zabbix-audit reads history records from the Zabbix database and forwards them,
in order, to Splunk, Kafka or MongoDB. Each invocation forwards one page and
remembers the last delivered record so the next run continues from there.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(NewSyncCmd(), NewCheckpointCmd())

	return rootCmd
}
