// Command hostcored is the control-plane daemon: it discovers and
// polls GameStream-compatible hosts, persists their pairing state, and
// exposes the local HTTP control API the UI drives.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vireo-stream/hostcore/cmd/hostcored/commands"
)

var rootCmd = &cobra.Command{
	Use:   "hostcored",
	Short: "hostcored - GameStream host discovery and control plane",
	Long: `hostcored discovers GameStream-compatible hosts on the local network,
manages pairing and identity, polls known hosts for their current state,
and exposes a local HTTP control API for a UI to drive.

Available commands:
  serve    - Run the daemon (discovery, polling, control API)
  version  - Print version information`,
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().String("config", "", "Path to bootstrap config file (toml)")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
