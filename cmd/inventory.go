package cmd

import (
	"fmt"

	"tsinventory/internal/cli"
	"tsinventory/internal/inventory"

	"github.com/spf13/cobra"
)

type inventoryOptions struct {
	list bool
	host string
	cli.CommandFlags
}

func newInventoryCmd() *cobra.Command {
	opts := &inventoryOptions{}

	cmd := &cobra.Command{
		Use:   "inventory [TAGS...]",
		Short: "Print the Ansible inventory for the tailnet",
		Long: `Print the Ansible inventory built from the tailnet's devices.

Only devices carrying at least one of the configured tags are included, and
every tag becomes a group. Positional TAGS replace the tags from the inventory
file, the environment and --tags. Both "web" and "tag:web" are accepted.

Without --host the whole inventory is printed (--list is the default).`,
		Example: `  tsinventory inventory node db
  tsinventory inventory --host web-1
  tsinventory inventory -o yaml > hosts.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.list = opts.host == ""
			return runInventory(cmd, args, opts)
		},
	}

	registerInventoryFlags(cmd, opts, true)
	return cmd
}

// registerInventoryFlags adds --list and --host. withFormats adds the output
// flags, which the bare inventory-script protocol does not accept.
func registerInventoryFlags(cmd *cobra.Command, opts *inventoryOptions, withFormats bool) {
	cmd.Flags().BoolVar(&opts.list, "list", false, "Print the whole inventory")
	cmd.Flags().StringVar(&opts.host, "host", "", "Print the variables of a single host")
	cmd.MarkFlagsMutuallyExclusive("list", "host")

	if withFormats {
		cli.RegisterOutputFlag(cmd, &opts.CommandFlags, cli.OutputFormatJSON, cli.InventoryOutputFormats)
		cli.RegisterPrettyFlag(cmd, &opts.CommandFlags)
	}
}

func runInventory(cmd *cobra.Command, args []string, opts *inventoryOptions) error {
	format := cli.OutputFormatJSON
	if opts.OutputFormat != "" {
		var err error
		if format, err = opts.Format(cli.InventoryOutputFormats); err != nil {
			return err
		}
	}

	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	inv, err := inventory.Generate(ctx, newClient(ctx, cfg), inventory.Options{
		Tags:        inventory.NewTagSet(cfg.Tags...),
		GroupPrefix: cfg.GroupPrefix,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if opts.host != "" {
		vars := inv.HostVars(opts.host)
		if format == cli.OutputFormatYAML {
			return cli.WriteYAML(out, vars)
		}
		return cli.WriteJSON(out, vars, opts.Pretty)
	}

	if format == cli.OutputFormatYAML {
		data, err := inv.StaticYAML()
		if err != nil {
			return fmt.Errorf("failed to render inventory: %w", err)
		}
		_, err = out.Write(data)
		return err
	}
	return cli.WriteJSON(out, inv, opts.Pretty)
}
