// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"

	"github.com/Thermoquad/scumloader/pkg/transport"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Long: `List the serial ports on this host with their USB details.

The port marked with * is the one program uses when --port is omitted: the
first J-Link port (the first port of any kind on Windows).

Exit codes:
  0 - At least one port found
  1 - No serial ports found
  2 - Port enumeration failed`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ports, err := listPorts()
		if err != nil {
			printFailure(cmd.ErrOrStderr(), "Enumeration error", err)
			os.Exit(exitSetup)
		}
		if printPorts(cmd.OutOrStdout(), runtime.GOOS, ports) == 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}

// printPorts writes one line per port and returns the number printed
func printPorts(w io.Writer, goos string, ports []*enumerator.PortDetails) int {
	if len(ports) == 0 {
		fmt.Fprintf(w, "No serial ports found (fallback: %s)\n", transport.FallbackPort(goos))
		return 0
	}

	pick, _ := transport.FindProgrammerPort(goos, ports)
	for _, p := range ports {
		marker := " "
		if p.Name == pick {
			marker = successStyle.Render("*")
		}

		usb := "-"
		if p.IsUSB {
			usb = fmt.Sprintf("%s:%s", p.VID, p.PID)
		}

		fmt.Fprintf(w, "%s %-16s %-10s %s", marker, p.Name, usb, valueStyle.Render(p.Product))
		if p.SerialNumber != "" {
			fmt.Fprintf(w, " %s", headerStyle.Render("(serial "+p.SerialNumber+")"))
		}
		fmt.Fprintln(w)
	}
	return len(ports)
}
