package cmd

import (
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var flagArch string

	statusCmd := &cobra.Command{
		Use:   "status <snap-name>",
		Short: "Show the channel map of a published snap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := storeClient()
			if err != nil {
				return err
			}

			channelMap, err := client.Status(cmd.Context(), args[0], flagArch)
			if err != nil {
				return err
			}

			arches := make([]string, 0, len(channelMap))
			for arch := range channelMap {
				arches = append(arches, arch)
			}
			sort.Strings(arches)

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Arch", "Track", "Channel", "Version", "Revision"})
			for _, arch := range arches {
				tracks := make([]string, 0, len(channelMap[arch]))
				for track := range channelMap[arch] {
					tracks = append(tracks, track)
				}
				sort.Strings(tracks)
				for _, track := range tracks {
					for _, ch := range channelMap[arch][track] {
						version := ch.Version
						revision := any(ch.Revision)
						if ch.Info == "none" {
							version = "-"
							revision = "-"
						}
						t.AppendRow(table.Row{arch, track, ch.Channel, version, revision})
					}
				}
			}
			t.Render()
			return nil
		},
	}

	statusCmd.Flags().StringVar(&flagArch, "arch", "", "architecture to show")

	return statusCmd
}
