package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"sftpcopy/internal/transfer"
	"sftpcopy/pkg/utils"
)

var listCmd = &cobra.Command{
	Use:   "list [remote-path]",
	Short: "List one level of a remote directory",
	Long: `List the immediate children of a remote directory.
The result is printed as JSON, or as a table with --table.`,
	Example: `  # List the home directory of the configured server
  sftpcopy list /

  # Human readable listing of an FTP directory
  sftpcopy list /pub --protocol ftp --host ftp.example.com -u anonymous --password guest --table`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd, args)
	},
}

func runList(cmd *cobra.Command, args []string) error {
	path := "/"
	if len(args) == 1 {
		path = args[0]
	}
	protocol := getProtocol(cmd)

	logger, closer, err := newLogger(cmd)
	if err != nil {
		return fail(err, "list")
	}
	defer closer.Close()

	dialer, err := newDialer(cmd, protocol, logger)
	if err != nil {
		return fail(err, "list")
	}

	creds, err := getCredentials(cmd, protocol)
	if err != nil {
		return fail(err, "list")
	}

	ctx, cancel := context.WithTimeout(context.Background(), getTimeout(cmd))
	defer cancel()

	opts := transfer.DefaultOptions()
	opts.Protocol = protocol
	executor := transfer.NewExecutor(dialer, logger, nil, opts)

	result, err := executor.ListRemote(ctx, creds, path)
	if err != nil {
		return fail(err, "list")
	}

	if table, _ := cmd.Flags().GetBool("table"); table {
		if err := utils.RenderEntries(os.Stdout, result.Entries); err != nil {
			return fail(err, "list")
		}
		return nil
	}

	if err := utils.PrintJSON(result); err != nil {
		return fail(err, "list")
	}
	return nil
}

func init() {
	addConnectionFlags(listCmd, 300)
	listCmd.Flags().Bool("table", false, "Render entries as a table instead of JSON")
}
