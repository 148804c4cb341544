package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"sftpcopy/internal/models"
)

// ErrNotFound is returned by Session.Stat when the remote path does not exist.
var ErrNotFound = errors.New("remote path not found")

type Credentials struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (c Credentials) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Session is an authenticated connection to a remote file service.
// Implementations are used from a single goroutine.
type Session interface {
	// Stat classifies path. It returns an error wrapping ErrNotFound when
	// the path does not exist.
	Stat(ctx context.Context, path string) (models.RemoteEntry, error)
	// List returns the immediate children of dir in server order.
	List(ctx context.Context, dir string) ([]models.RemoteEntry, error)
	// Download streams the bytes of path into w. onBytes, when not nil,
	// receives the cumulative number of bytes written so far.
	Download(ctx context.Context, path string, w io.Writer, onBytes func(uint64)) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, creds Credentials) (Session, error)
}

type DialerFunc func(ctx context.Context, creds Credentials) (Session, error)

func (f DialerFunc) Dial(ctx context.Context, creds Credentials) (Session, error) {
	return f(ctx, creds)
}

// Join builds the remote path of a child entry. Remote paths always use
// forward slashes regardless of the local OS.
func Join(dir, name string) string {
	if dir == "" {
		return name
	}
	return strings.TrimRight(dir, "/") + "/" + name
}

// Base returns the last element of a remote path.
func Base(p string) string {
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// CountingWriter forwards writes to W and reports the running total to
// OnBytes after each successful write.
type CountingWriter struct {
	W       io.Writer
	OnBytes func(uint64)
	n       uint64
}

func (cw *CountingWriter) Write(p []byte) (int, error) {
	n, err := cw.W.Write(p)
	if n > 0 {
		cw.n += uint64(n)
		if cw.OnBytes != nil {
			cw.OnBytes(cw.n)
		}
	}
	return n, err
}

func (cw *CountingWriter) Written() uint64 {
	return cw.n
}
