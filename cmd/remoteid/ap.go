package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"remoteid-beacon/internal/admin"
	"remoteid-beacon/internal/config"
	"remoteid-beacon/internal/hostapd"
	"remoteid-beacon/internal/logging"
)

// Access point flags, shared by every command that ends up driving hostapd.
var (
	apInterface string
	apSSID      string
	apConf      string
	apDebug     bool
)

var (
	apHostapdBin string
	apStatusAddr string
)

var apCmd = &cobra.Command{
	Use:   "ap [MODE]",
	Short: "Run hostapd with vendor elements read from STDIN",
	Long: `ap reads one hexdump of information elements (id+len+payload) per line
from STDIN. The first line starts hostapd on a freshly rendered hostapd.conf;
every later line rewrites the file and sends SIGHUP so hostapd picks up the
new elements without dropping the radio. The only MODE is "beacon".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAP,
}

func runAP(cmd *cobra.Command, args []string) error {
	if len(args) == 1 && args[0] != "beacon" {
		return fmt.Errorf("unsupported mode %q", args[0])
	}
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	ap := apSettings(cmd)
	if cmd.Flags().Changed("hostapd-bin") {
		ap.HostapdBin = apHostapdBin
	}
	ctrl := hostapd.NewController(ap.Settings(), ap.ConfPath, ap.Daemon())

	if apStatusAddr != "" {
		srv := admin.NewServer(ctrl)
		go func() {
			log.Info("status server listening", "addr", apStatusAddr)
			if err := srv.Start(ctx, apStatusAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("status server failed", "err", err)
			}
		}()
	}

	log.Info("waiting for vendor elements", "interface", ap.Interface, "ssid", ap.SSID, "conf", ap.ConfPath)
	err := ctrl.Run(ctx, cmd.InOrStdin())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// addAPFlags registers the access point flags on c.
func addAPFlags(c *cobra.Command) {
	c.Flags().StringVarP(&apInterface, "interface", "i", "wlan0", "Wireless interface to be used for the AP")
	c.Flags().StringVarP(&apSSID, "ssid", "s", "test", "SSID to be used in IEEE 802.11 management frames")
	c.Flags().StringVarP(&apConf, "conf", "c", hostapd.DefaultConfPath, "Alternative location for hostapd.conf")
	c.Flags().BoolVarP(&apDebug, "debug", "d", false, "Run hostapd with -dd")
}

// apSettings returns the configured access point with flag overrides applied.
func apSettings(cmd *cobra.Command) config.AP {
	ap := cfg.AP
	flags := cmd.Flags()
	if flags.Changed("interface") {
		ap.Interface = apInterface
	}
	if flags.Changed("ssid") {
		ap.SSID = apSSID
	}
	if flags.Changed("conf") {
		ap.ConfPath = apConf
	}
	if flags.Changed("debug") {
		ap.Debug = apDebug
	}
	return ap
}

func init() {
	addAPFlags(apCmd)
	apCmd.Flags().StringVar(&apHostapdBin, "hostapd-bin", "hostapd", "hostapd executable")
	apCmd.Flags().StringVar(&apStatusAddr, "status-addr", "", "Serve controller status on this address (e.g. :8080)")
}
