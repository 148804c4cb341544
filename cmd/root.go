package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sftpcopy/config"
	"sftpcopy/internal/ftpclient"
	"sftpcopy/internal/remote"
	"sftpcopy/internal/s3client"
	"sftpcopy/internal/sftpclient"
	"sftpcopy/internal/transfer"
	"sftpcopy/pkg/utils"
)

var (
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sftpcopy",
	Short: "Copy files and directories from a remote server to the local machine",
	Long: `sftpcopy downloads a remote file or directory tree over SFTP, FTP/FTPS or S3.
It reports throttled progress while copying and prints a JSON summary when done.
Configuration is loaded from .env file or environment variables; flags override it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(config *config.Config) error {
	cfg = config
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(testConnectionCmd)

	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().Bool("log-file", false, "Also write logs to a rotating file under logs/")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
}

// addConnectionFlags registers the flags every remote command shares.
func addConnectionFlags(cmd *cobra.Command, timeout int) {
	cmd.Flags().StringP("protocol", "P", "", "Transfer protocol: sftp, ftp, ftps, ftps-implicit, s3 (default from config)")
	cmd.Flags().StringP("host", "H", "", "Remote host")
	cmd.Flags().IntP("port", "p", 0, "Remote port (default depends on protocol)")
	cmd.Flags().StringP("username", "u", "", "Username (S3: access key)")
	cmd.Flags().String("password", "", "Password (S3: secret key); prompted for when empty on a terminal")
	cmd.Flags().String("known-hosts", "", "OpenSSH known_hosts file used to verify the SFTP host key")
	cmd.Flags().Bool("insecure", false, "Skip TLS verification (ftps) or use plain HTTP (s3)")
	cmd.Flags().StringP("bucket", "b", "", "Override bucket name from config (s3 only)")
	cmd.Flags().Int("timeout", timeout, "Timeout in seconds for the operation")
}

func isVerbose(cmd *cobra.Command) bool {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return verbose
}

func stringFlag(cmd *cobra.Command, name, fallback string) string {
	if value, _ := cmd.Flags().GetString(name); value != "" {
		return value
	}
	return fallback
}

func getProtocol(cmd *cobra.Command) string {
	return strings.ToLower(stringFlag(cmd, "protocol", cfg.Protocol))
}

func getBucketName(cmd *cobra.Command) string {
	return stringFlag(cmd, "bucket", cfg.BucketName)
}

func getTimeout(cmd *cobra.Command) time.Duration {
	timeout, _ := cmd.Flags().GetInt("timeout")
	return time.Duration(timeout) * time.Second
}

// defaultPort returns the well-known port of protocol, or 0 when unknown.
func defaultPort(protocol string) int {
	switch protocol {
	case "sftp":
		return 22
	case "ftp", "ftps":
		return 21
	case "ftps-implicit":
		return 990
	case "s3":
		return 443
	default:
		return 0
	}
}

func getCredentials(cmd *cobra.Command, protocol string) (remote.Credentials, error) {
	creds := remote.Credentials{
		Host:     stringFlag(cmd, "host", cfg.Host),
		Username: stringFlag(cmd, "username", cfg.Username),
		Password: stringFlag(cmd, "password", cfg.Password),
	}
	if protocol == "s3" && creds.Host == "" {
		creds.Host = s3client.DefaultHost
	}

	creds.Port, _ = cmd.Flags().GetInt("port")
	if !cmd.Flags().Changed("port") {
		creds.Port = cfg.Port
		if creds.Port == 0 {
			creds.Port = defaultPort(protocol)
		}
	}

	if creds.Password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintf(os.Stderr, "Password for %s@%s: ", creds.Username, creds.Host)
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return creds, fmt.Errorf("failed to read password: %w", err)
		}
		creds.Password = string(password)
	}
	return creds, nil
}

func newDialer(cmd *cobra.Command, protocol string, logger *slog.Logger) (remote.Dialer, error) {
	insecure, _ := cmd.Flags().GetBool("insecure")
	timeout := min(getTimeout(cmd), time.Minute)

	switch protocol {
	case "sftp":
		return sftpclient.NewDialer(sftpclient.Options{
			KnownHosts: stringFlag(cmd, "known-hosts", cfg.KnownHosts),
			Timeout:    timeout,
			Logger:     logger,
		}), nil
	case "ftp", "ftps", "ftps-implicit":
		mode := ftpclient.TLSNone
		switch protocol {
		case "ftps":
			mode = ftpclient.TLSExplicit
		case "ftps-implicit":
			mode = ftpclient.TLSImplicit
		}
		return ftpclient.NewDialer(ftpclient.Options{
			TLS:                mode,
			InsecureSkipVerify: insecure,
			Timeout:            timeout,
			Logger:             logger,
		}), nil
	case "s3":
		return s3client.NewDialer(s3client.Options{
			Bucket:   getBucketName(cmd),
			Region:   cfg.Region,
			Insecure: insecure,
			Logger:   logger,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unsupported protocol %q", transfer.ErrValidation, protocol)
	}
}

func newLogger(cmd *cobra.Command) (*slog.Logger, io.Closer, error) {
	level := stringFlag(cmd, "log-level", cfg.LogLevel)
	if isVerbose(cmd) {
		level = "debug"
	}
	toFile, _ := cmd.Flags().GetBool("log-file")
	return utils.NewLogger(utils.LogOptions{
		Level:  level,
		ToFile: toFile || cfg.LogToFile,
	})
}

// fail prints err as a JSON error response and returns it so main exits 1.
func fail(err error, command string) error {
	utils.PrintErrorKind(err, transfer.KindOf(err), command)
	return err
}
