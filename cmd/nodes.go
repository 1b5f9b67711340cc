package cmd

import (
	"fmt"

	"tsinventory/internal/cli"
	"tsinventory/internal/inventory"

	"github.com/spf13/cobra"
)

type nodesOptions struct {
	all bool
	cli.CommandFlags
}

func newNodesCmd(globals *globalOptions) *cobra.Command {
	opts := &nodesOptions{}

	cmd := &cobra.Command{
		Use:     "nodes [TAGS...]",
		Aliases: []string{"devices"},
		Short:   "List the tailnet devices that would be inventoried",
		Long: `List the devices of the tailnet as a table.

By default only devices carrying one of the configured tags are shown, which
is exactly the set of hosts the inventory contains. Use --all to list every
device the OAuth client can see.`,
		Example: `  tsinventory nodes
  tsinventory nodes --all -o wide
  tsinventory nodes node -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := opts.Format(cli.NodeOutputFormats)
			if err != nil {
				return err
			}

			cfg, err := resolveConfig(cmd, args)
			if err != nil {
				return err
			}

			tags := inventory.NewTagSet(cfg.Tags...)
			if !opts.all && tags.Len() == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("No tags configured, so no device is inventoried. Pass --all to list every device."))
			}

			progress := cli.StartProgress(cmd.ErrOrStderr(), "Listing devices...", globals.quiet)
			ctx := cmd.Context()
			devices, err := newClient(ctx, cfg).ListDevices(ctx)
			if err != nil {
				progress.Fail("Failed to list devices")
				return err
			}
			progress.Stop()

			if !opts.all {
				devices = inventory.Filter(devices, tags)
			}

			return cli.RenderNodes(cmd.OutOrStdout(), devices, cli.NodeRenderOptions{
				Format:    format,
				NoHeaders: opts.NoHeaders,
			})
		},
	}

	cmd.Flags().BoolVar(&opts.all, "all", false, "List every device, ignoring tags")
	cli.RegisterOutputFlag(cmd, &opts.CommandFlags, cli.OutputFormatTable, cli.NodeOutputFormats)
	cli.RegisterNoHeadersFlag(cmd, &opts.CommandFlags)
	return cmd
}
