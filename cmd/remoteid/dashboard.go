package main

import (
	"github.com/spf13/cobra"

	"remoteid-beacon/internal/beacon"
	"remoteid-beacon/internal/dashboard"
	"remoteid-beacon/internal/logging"
)

var dashboardOut string

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render the Grafana dashboard for recorded beacons",
	Long: `dashboard writes a Grafana dashboard over the GreptimeDB beacon table.
GREPTIMEDB_DATASOURCE_UID names the Grafana datasource.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table := cfg.Record.Greptime.Table
		if table == "" {
			table = beacon.DefaultBeaconTable
		}
		if err := dashboard.Render(dashboardOut, dashboard.Params{Table: table}); err != nil {
			return err
		}
		logging.FromContext(cmd.Context()).Info("dashboard rendered", "dir", dashboardOut, "table", table)
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashboardOut, "out", "build", "Output directory")
}
