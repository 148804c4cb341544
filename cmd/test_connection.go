package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"sftpcopy/internal/transfer"
	"sftpcopy/pkg/utils"
)

var testConnectionCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "Check that the remote server accepts the configured credentials",
	Long: `Connect and authenticate against the remote server, then try to list --path.
An unreadable path is reported as a warning; only a failed connection is an error.`,
	Example: `  # Check the configured server
  sftpcopy test-connection

  # Check an FTPS server and a specific directory
  sftpcopy test-connection --protocol ftps --host ftp.example.com -u user --path /incoming`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTestConnection(cmd)
	},
}

func runTestConnection(cmd *cobra.Command) error {
	protocol := getProtocol(cmd)
	probePath, _ := cmd.Flags().GetString("path")

	logger, closer, err := newLogger(cmd)
	if err != nil {
		return fail(err, "test-connection")
	}
	defer closer.Close()

	dialer, err := newDialer(cmd, protocol, logger)
	if err != nil {
		return fail(err, "test-connection")
	}

	creds, err := getCredentials(cmd, protocol)
	if err != nil {
		return fail(err, "test-connection")
	}

	ctx, cancel := context.WithTimeout(context.Background(), getTimeout(cmd))
	defer cancel()

	opts := transfer.DefaultOptions()
	opts.Protocol = protocol
	executor := transfer.NewExecutor(dialer, logger, nil, opts)

	result, err := executor.TestConnection(ctx, creds, probePath)
	if err != nil {
		return fail(err, "test-connection")
	}

	if err := utils.PrintJSON(result); err != nil {
		return fail(err, "test-connection")
	}

	if isVerbose(cmd) {
		logger.Debug("Connection test completed", "path_readable", result.PathReadable)
	}
	return nil
}

func init() {
	addConnectionFlags(testConnectionCmd, 60)
	testConnectionCmd.Flags().String("path", "/", "Remote path to probe")
}
