package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"tsinventory/internal/cli"
	"tsinventory/internal/config"
	"tsinventory/pkg/logging"

	"github.com/spf13/cobra"
)

// appVersion is injected by main at build time.
var appVersion = "dev"

// SetVersion sets the version reported by "version" and --version.
func SetVersion(v string) {
	appVersion = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return appVersion
}

// globalOptions holds the persistent flags that are not configuration.
type globalOptions struct {
	debug bool
	quiet bool
}

// newRootCmd builds the command tree. The root command itself speaks the
// Ansible inventory-script protocol (--list / --host).
func newRootCmd() *cobra.Command {
	globals := &globalOptions{}
	invOpts := &inventoryOptions{}

	rootCmd := &cobra.Command{
		Use:   "tsinventory",
		Short: "Ansible dynamic inventory for a Tailscale tailnet",
		Long: `tsinventory lists the devices of a Tailscale tailnet, keeps the ones
carrying the configured tags and prints them as an Ansible inventory with one
group per tag.

Use it directly as an inventory script:

  ansible-inventory -i tsinventory --list

or point Ansible at a wrapper that runs "tsinventory --list".`,
		Version: appVersion,
		Args:    cobra.NoArgs,
		// Errors are reported once by run, with exit codes.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.InitForCLI(logging.LevelForFlags(globals.debug, globals.quiet), cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !invOpts.list && invOpts.host == "" {
				return cmd.Help()
			}
			return runInventory(cmd, args, invOpts)
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "tsinventory version %s\n" .Version}}`)

	pf := rootCmd.PersistentFlags()
	config.RegisterFlags(pf)
	pf.BoolVar(&globals.debug, "debug", false, "Enable debug logging on stderr")
	pf.BoolVarP(&globals.quiet, "quiet", "q", false, "Only log warnings and errors; hide progress spinners")

	registerInventoryFlags(rootCmd, invOpts, false)

	rootCmd.AddCommand(
		newInventoryCmd(),
		newNodesCmd(globals),
		newTokenCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute is the main entry point for the CLI application. It never returns.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command tree with args and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, cli.DescribeError(err))
	}
	return cli.ExitCode(err)
}
