package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGetDevicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get-devices",
		Short: "List the devices on the Rachio account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := a.client.GetDevices(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return writeJSON(out, devices)
			}
			for _, d := range devices {
				fmt.Fprintf(out, "%s: %s\n", d.Name, d.ID)
			}
			return nil
		},
	}
}
