package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"sftpcopy/internal/models"
	"sftpcopy/internal/remote"
)

type fakeNode struct {
	kind     models.EntryKind
	data     []byte
	children []string
}

// fakeSession is an in-memory remote tree whose listings come back in
// insertion order, optionally preceded by "." and "..".
type fakeSession struct {
	nodes       map[string]*fakeNode
	withDots    bool
	chunk       int
	listErr     map[string]error
	downloadErr map[string]error
	afterChunk  func(path string, written int)
	closed      bool
	downloads   []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		nodes:       map[string]*fakeNode{"/": {kind: models.KindDirectory}},
		chunk:       16,
		listErr:     map[string]error{},
		downloadErr: map[string]error{},
	}
}

func (s *fakeSession) add(path string, node *fakeNode) *fakeSession {
	s.nodes[path] = node
	parent := path[:strings.LastIndex(path, "/")]
	if parent == "" {
		parent = "/"
	}
	p, ok := s.nodes[parent]
	if !ok {
		panic(fmt.Sprintf("parent of %s not added", path))
	}
	p.children = append(p.children, remote.Base(path))
	return s
}

func (s *fakeSession) dir(path string) *fakeSession {
	return s.add(path, &fakeNode{kind: models.KindDirectory})
}

func (s *fakeSession) file(path string, size int) *fakeSession {
	return s.add(path, &fakeNode{kind: models.KindFile, data: bytes.Repeat([]byte{'x'}, size)})
}

func (s *fakeSession) other(path string) *fakeSession {
	return s.add(path, &fakeNode{kind: models.KindOther})
}

func (s *fakeSession) entry(path string) models.RemoteEntry {
	n := s.nodes[path]
	return models.RemoteEntry{
		Name:       remote.Base(path),
		FullPath:   path,
		Kind:       n.kind,
		Size:       uint64(len(n.data)),
		ModifiedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func (s *fakeSession) Stat(_ context.Context, path string) (models.RemoteEntry, error) {
	if _, ok := s.nodes[path]; !ok {
		return models.RemoteEntry{}, fmt.Errorf("stat %s: %w", path, remote.ErrNotFound)
	}
	return s.entry(path), nil
}

func (s *fakeSession) List(_ context.Context, dir string) ([]models.RemoteEntry, error) {
	if err := s.listErr[dir]; err != nil {
		return nil, err
	}
	n, ok := s.nodes[dir]
	if !ok || n.kind != models.KindDirectory {
		return nil, fmt.Errorf("list %s: %w", dir, remote.ErrNotFound)
	}
	var entries []models.RemoteEntry
	if s.withDots {
		entries = append(entries, models.RemoteEntry{Name: ".", Kind: models.KindDirectory}, models.RemoteEntry{Name: "..", Kind: models.KindDirectory})
	}
	for _, name := range n.children {
		entry := s.entry(remote.Join(dir, name))
		// Leave FullPath empty so the walker has to fill it in.
		entry.FullPath = ""
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *fakeSession) Download(_ context.Context, path string, w io.Writer, onBytes func(uint64)) error {
	s.downloads = append(s.downloads, path)
	n, ok := s.nodes[path]
	if !ok || n.kind != models.KindFile {
		return fmt.Errorf("download %s: not a file", path)
	}

	cw := &remote.CountingWriter{W: w, OnBytes: onBytes}
	for off := 0; off < len(n.data); off += s.chunk {
		end := min(off+s.chunk, len(n.data))
		if _, err := cw.Write(n.data[off:end]); err != nil {
			return err
		}
		if s.afterChunk != nil {
			s.afterChunk(path, end)
		}
	}
	return s.downloadErr[path]
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeDialer struct {
	session *fakeSession
	err     error
	calls   int
	creds   remote.Credentials
}

func (d *fakeDialer) Dial(_ context.Context, creds remote.Credentials) (remote.Session, error) {
	d.calls++
	d.creds = creds
	if d.err != nil {
		return nil, d.err
	}
	return d.session, nil
}

// fakeClock advances by step on every call.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newFakeClock(step time.Duration) *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), step: step}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

type captureReporter struct {
	operations []string
	started    []string
	completed  []string
	samples    []models.ProgressSample
	success    *bool
	message    string

	onFileCompleted func(remotePath string)
}

func (r *captureReporter) OperationStarted(operation string) {
	r.operations = append(r.operations, operation)
}

func (r *captureReporter) FileStarted(remotePath, _ string, _ uint64) {
	r.started = append(r.started, remotePath)
}

func (r *captureReporter) Progress(sample models.ProgressSample) {
	r.samples = append(r.samples, sample)
}

func (r *captureReporter) FileCompleted(remotePath, _ string, _ uint64) {
	r.completed = append(r.completed, remotePath)
	if r.onFileCompleted != nil {
		r.onFileCompleted(remotePath)
	}
}

func (r *captureReporter) OperationCompleted(success bool, message string, _ time.Duration) {
	r.success = &success
	r.message = message
}

func (r *captureReporter) samplesFor(name string) []models.ProgressSample {
	var out []models.ProgressSample
	for _, s := range r.samples {
		if s.FileName == name {
			out = append(out, s)
		}
	}
	return out
}

var errBoom = errors.New("boom")

func testCreds() remote.Credentials {
	return remote.Credentials{Host: "nas.local", Port: 22, Username: "backup", Password: "secret"}
}
