package sftpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"sftpcopy/internal/models"
	"sftpcopy/internal/remote"
)

type Options struct {
	// KnownHosts is an OpenSSH known_hosts file. When empty the host key
	// is not verified and a warning is logged on every connect.
	KnownHosts string
	Timeout    time.Duration
	Logger     *slog.Logger
}

type Dialer struct {
	opts Options
}

func NewDialer(opts Options) *Dialer {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Dialer{opts: opts}
}

func (d *Dialer) clientConfig(creds remote.Credentials) (*ssh.ClientConfig, error) {
	hostKey := ssh.InsecureIgnoreHostKey()
	if d.opts.KnownHosts != "" {
		cb, err := knownhosts.New(d.opts.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts %s: %w", d.opts.KnownHosts, err)
		}
		hostKey = cb
	} else {
		d.opts.Logger.Warn("Host key verification disabled", "host", creds.Host)
	}

	password := creds.Password
	return &ssh.ClientConfig{
		User: creds.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(password),
			// Many servers only offer keyboard-interactive for password logins.
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: hostKey,
		Timeout:         d.opts.Timeout,
	}, nil
}

func (d *Dialer) Dial(ctx context.Context, creds remote.Credentials) (remote.Session, error) {
	config, err := d.clientConfig(creds)
	if err != nil {
		return nil, err
	}

	addr := creds.Address()
	netDialer := net.Dialer{Timeout: d.opts.Timeout}
	conn, err := netDialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	// The handshake itself ignores ctx, so bound it with a deadline.
	if err := conn.SetDeadline(time.Now().Add(d.opts.Timeout)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}
	if err := conn.SetDeadline(time.Time{}); err != nil {
		sshConn.Close()
		return nil, fmt.Errorf("failed to clear deadline: %w", err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("failed to start sftp subsystem: %w", err)
	}

	d.opts.Logger.Debug("SFTP session opened", "address", addr, "server_version", string(sshConn.ServerVersion()))
	return &Session{client: sftpClient, closer: sshClient}, nil
}

// Session adapts an sftp.Client to remote.Session.
type Session struct {
	client *sftp.Client
	closer io.Closer
}

func newSession(client *sftp.Client) *Session {
	return &Session{client: client}
}

func (s *Session) Stat(_ context.Context, path string) (models.RemoteEntry, error) {
	info, err := s.client.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.RemoteEntry{}, fmt.Errorf("stat %s: %w", path, remote.ErrNotFound)
		}
		return models.RemoteEntry{}, fmt.Errorf("stat %s: %w", path, err)
	}
	entry := toEntry(info)
	entry.FullPath = path
	return entry, nil
}

func (s *Session) List(_ context.Context, dir string) ([]models.RemoteEntry, error) {
	infos, err := s.client.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("readdir %s: %w", dir, err)
	}
	entries := make([]models.RemoteEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, toEntry(info))
	}
	return entries, nil
}

func (s *Session) Download(ctx context.Context, path string, w io.Writer, onBytes func(uint64)) error {
	f, err := s.client.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cw := &remote.CountingWriter{W: w, OnBytes: onBytes}
	if _, err := io.Copy(cw, f); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("read %s: %w", path, ctxErr)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func (s *Session) Close() error {
	err := s.client.Close()
	if s.closer != nil {
		err = errors.Join(err, s.closer.Close())
	}
	return err
}

// toEntry classifies by mode bits. ReadDir does not follow symlinks, so a
// link inside a directory becomes KindOther.
func toEntry(info fs.FileInfo) models.RemoteEntry {
	entry := models.RemoteEntry{
		Name:       info.Name(),
		ModifiedAt: info.ModTime(),
	}
	switch mode := info.Mode(); {
	case mode.IsDir():
		entry.Kind = models.KindDirectory
	case mode.IsRegular():
		entry.Kind = models.KindFile
		if size := info.Size(); size > 0 {
			entry.Size = uint64(size)
		}
	default:
		entry.Kind = models.KindOther
	}
	return entry
}
