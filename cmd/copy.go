package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"sftpcopy/internal/models"
	"sftpcopy/internal/transfer"
	"sftpcopy/pkg/utils"
)

var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy a remote file or directory to a local path",
	Long: `Copy a remote file or directory to a local path.

A file is written into --local-path when that is an existing directory, otherwise
to --local-path itself. Directories require --recursive and are copied depth-first,
creating local directories as needed. Symlinks and other special entries are
skipped. Files already written stay on disk if the copy fails or is interrupted.`,
	Example: `  # Copy a single file into the current directory
  sftpcopy copy --host nas.local -u backup --remote-path /exports/db.sql --local-path .

  # Copy a directory tree over FTPS
  sftpcopy copy --protocol ftps --host ftp.example.com -u user \
    --remote-path /pub/releases --local-path ./releases --recursive

  # Copy a prefix out of the configured S3 bucket
  sftpcopy copy --protocol s3 --remote-path /logs/2024 --local-path ./logs -R

  # Report progress from the local write stream and warn about skipped links
  sftpcopy copy -R --remote-path /data --local-path ./data --report-mode stream --other warn`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCopy(cmd)
	},
}

func runCopy(cmd *cobra.Command) error {
	remotePath, _ := cmd.Flags().GetString("remote-path")
	localPath, _ := cmd.Flags().GetString("local-path")
	recursive, _ := cmd.Flags().GetBool("recursive")

	opts, err := executorOptions(cmd)
	if err != nil {
		return fail(err, "copy")
	}

	logger, closer, err := newLogger(cmd)
	if err != nil {
		return fail(err, "copy")
	}
	defer closer.Close()

	dialer, err := newDialer(cmd, opts.Protocol, logger)
	if err != nil {
		return fail(err, "copy")
	}

	creds, err := getCredentials(cmd, opts.Protocol)
	if err != nil {
		return fail(err, "copy")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, getTimeout(cmd))
	defer cancel()

	if isVerbose(cmd) {
		logger.Debug("Starting copy operation",
			"protocol", opts.Protocol, "host", creds.Host, "remote", remotePath, "local", localPath, "recursive", recursive)
	}

	executor := transfer.NewExecutor(dialer, logger, newReporter(logger), opts)
	outcome, err := executor.Copy(ctx, creds, models.TransferTarget{
		RemotePath: remotePath,
		LocalPath:  localPath,
		Recursive:  recursive,
	})

	if printErr := utils.PrintJSON(outcome); printErr != nil {
		return fail(printErr, "copy")
	}
	return err
}

func executorOptions(cmd *cobra.Command) (transfer.Options, error) {
	opts := transfer.DefaultOptions()
	opts.Protocol = getProtocol(cmd)

	reportMode, _ := cmd.Flags().GetString("report-mode")
	switch strings.ToLower(reportMode) {
	case "callback", "":
		opts.ProgressSource = transfer.ProgressFromCallback
	case "stream":
		opts.ProgressSource = transfer.ProgressFromStream
	default:
		return opts, fmt.Errorf("%w: --report-mode must be callback or stream, got %q", transfer.ErrValidation, reportMode)
	}

	other, _ := cmd.Flags().GetString("other")
	switch strings.ToLower(other) {
	case "skip", "":
		opts.OtherPolicy = transfer.OtherSkip
	case "warn":
		opts.OtherPolicy = transfer.OtherWarn
	default:
		return opts, fmt.Errorf("%w: --other must be skip or warn, got %q", transfer.ErrValidation, other)
	}

	return opts, nil
}

func init() {
	addConnectionFlags(copyCmd, 3600)
	copyCmd.Flags().StringP("remote-path", "r", "", "Remote file or directory to copy")
	copyCmd.Flags().StringP("local-path", "l", "", "Local destination file or directory")
	copyCmd.Flags().BoolP("recursive", "R", false, "Copy directories recursively")
	copyCmd.Flags().String("report-mode", "callback", "Progress source: callback (transport) or stream (local writes)")
	copyCmd.Flags().String("other", "skip", "Handling of symlinks and special entries: skip or warn")
}
