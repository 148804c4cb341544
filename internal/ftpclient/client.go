package ftpclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/textproto"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"sftpcopy/internal/models"
	"sftpcopy/internal/remote"
)

type TLSMode int

const (
	TLSNone TLSMode = iota
	// TLSExplicit upgrades the control connection with AUTH TLS.
	TLSExplicit
	// TLSImplicit speaks TLS from the first byte (usually port 990).
	TLSImplicit
)

type Options struct {
	TLS                TLSMode
	InsecureSkipVerify bool
	Timeout            time.Duration
	Logger             *slog.Logger
	// DebugOutput receives the raw control-channel dialogue when set.
	DebugOutput io.Writer
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

func (d *Dialer) dialOptions(ctx context.Context, host string) []ftp.DialOption {
	options := []ftp.DialOption{
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(d.opts.Timeout),
	}
	if d.opts.DebugOutput != nil {
		options = append(options, ftp.DialWithDebugOutput(d.opts.DebugOutput))
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: d.opts.InsecureSkipVerify,
		ServerName:         host,
	}
	switch d.opts.TLS {
	case TLSExplicit:
		options = append(options, ftp.DialWithExplicitTLS(tlsConfig))
	case TLSImplicit:
		options = append(options, ftp.DialWithTLS(tlsConfig))
	}
	return options
}

func (d *Dialer) Dial(ctx context.Context, creds remote.Credentials) (remote.Session, error) {
	addr := creds.Address()
	conn, err := ftp.Dial(addr, d.dialOptions(ctx, creds.Host)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	if err := conn.Login(creds.Username, creds.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("login as %s failed: %w", creds.Username, err)
	}
	if err := conn.Type(ftp.TransferTypeBinary); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("failed to set binary transfer mode: %w", err)
	}

	d.opts.Logger.Debug("FTP session opened", "address", addr, "tls", d.opts.TLS != TLSNone)
	return &Session{conn: conn, logger: d.opts.Logger}, nil
}

// Session adapts an ftp.ServerConn to remote.Session.
type Session struct {
	conn   *ftp.ServerConn
	logger *slog.Logger
}

func (s *Session) Stat(_ context.Context, p string) (models.RemoteEntry, error) {
	if p == "/" || p == "" {
		return models.RemoteEntry{Name: "/", FullPath: p, Kind: models.KindDirectory}, nil
	}

	// MLST is optional, so fall back to listing the parent.
	e, err := s.conn.GetEntry(p)
	if err == nil {
		entry := toEntry(e)
		entry.Name = remote.Base(p)
		entry.FullPath = p
		return entry, nil
	}
	s.logger.Debug("MLST unavailable, listing parent", "path", p, "error", err)

	entries, err := s.conn.List(parentOf(p))
	if err != nil {
		if isNotFound(err) {
			return models.RemoteEntry{}, fmt.Errorf("stat %s: %w", p, remote.ErrNotFound)
		}
		return models.RemoteEntry{}, fmt.Errorf("stat %s: %w", p, err)
	}
	e = findEntry(entries, remote.Base(p))
	if e == nil {
		return models.RemoteEntry{}, fmt.Errorf("stat %s: %w", p, remote.ErrNotFound)
	}
	entry := toEntry(e)
	entry.FullPath = p
	return entry, nil
}

func (s *Session) List(_ context.Context, dir string) ([]models.RemoteEntry, error) {
	list, err := s.conn.List(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	entries := make([]models.RemoteEntry, 0, len(list))
	for _, e := range list {
		entries = append(entries, toEntry(e))
	}
	return entries, nil
}

func (s *Session) Download(ctx context.Context, p string, w io.Writer, onBytes func(uint64)) error {
	resp, err := s.conn.Retr(p)
	if err != nil {
		return fmt.Errorf("retrieve %s: %w", p, err)
	}

	cw := &remote.CountingWriter{W: w, OnBytes: onBytes}
	_, copyErr := io.Copy(cw, resp)
	// Close reads the transfer-complete reply; skipping it desyncs the
	// control connection.
	closeErr := resp.Close()
	if copyErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("read %s: %w", p, ctxErr)
		}
		return fmt.Errorf("read %s: %w", p, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf("finish %s: %w", p, closeErr)
	}
	return nil
}

func (s *Session) Close() error {
	return s.conn.Quit()
}

func toEntry(e *ftp.Entry) models.RemoteEntry {
	entry := models.RemoteEntry{
		Name:       e.Name,
		ModifiedAt: e.Time,
	}
	switch e.Type {
	case ftp.EntryTypeFolder:
		entry.Kind = models.KindDirectory
	case ftp.EntryTypeFile:
		entry.Kind = models.KindFile
		entry.Size = e.Size
	default:
		entry.Kind = models.KindOther
	}
	return entry
}

func findEntry(entries []*ftp.Entry, name string) *ftp.Entry {
	for _, e := range entries {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func parentOf(p string) string {
	p = strings.TrimRight(p, "/")
	dir := path.Dir(p)
	if dir == "." {
		return ""
	}
	return dir
}

func isNotFound(err error) bool {
	var protoErr *textproto.Error
	return errors.As(err, &protoErr) && protoErr.Code == ftp.StatusFileUnavailable
}
