package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"sftpcopy/internal/models"
	"sftpcopy/internal/remote"
	"sftpcopy/pkg/utils"
)

// ProgressSource selects which call site feeds the throttle.
type ProgressSource int

const (
	// ProgressFromCallback uses the transport's cumulative byte callback.
	ProgressFromCallback ProgressSource = iota
	// ProgressFromStream counts bytes as they reach the local file.
	ProgressFromStream
)

// OtherPolicy decides what happens to entries that are neither files nor
// directories (symlinks, devices...). They are never downloaded.
type OtherPolicy int

const (
	OtherSkip OtherPolicy = iota
	OtherWarn
)

type Options struct {
	Protocol          string
	ReportInterval    time.Duration
	StreamThreshold   float64
	CallbackThreshold float64
	ProgressSource    ProgressSource
	OtherPolicy       OtherPolicy
	FS                LocalFS
	Now               func() time.Time
}

func DefaultOptions() Options {
	return Options{
		ReportInterval:    DefaultReportInterval,
		StreamThreshold:   StreamThreshold,
		CallbackThreshold: CallbackThreshold,
		ProgressSource:    ProgressFromCallback,
		OtherPolicy:       OtherSkip,
	}
}

// Executor runs copy operations against sessions obtained from a Dialer.
// Runs are sequential: one session, one file in flight, depth-first.
type Executor struct {
	dialer   remote.Dialer
	fs       LocalFS
	logger   *slog.Logger
	reporter Reporter
	opts     Options
	walker   DirectoryWalker
}

func NewExecutor(dialer remote.Dialer, logger *slog.Logger, reporter Reporter, opts Options) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	fs := opts.FS
	if fs == nil {
		fs = OSFS{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = DefaultReportInterval
	}
	return &Executor{
		dialer:   dialer,
		fs:       fs,
		logger:   logger,
		reporter: reporter,
		opts:     opts,
	}
}

// Copy transfers target.RemotePath to target.LocalPath. The returned outcome
// is never nil; on failure it carries the error kind and whatever was
// written before the error stays on disk.
func (e *Executor) Copy(ctx context.Context, creds remote.Credentials, target models.TransferTarget) (*models.CopyOutcome, error) {
	start := e.opts.Now()
	outcome := &models.CopyOutcome{
		Protocol:        e.opts.Protocol,
		Host:            creds.Host,
		SourcePath:      target.RemotePath,
		DestinationPath: target.LocalPath,
		Recursive:       target.Recursive,
		Items:           []models.TransferItem{},
		OperationTime:   utils.FormatTime(start),
	}

	e.reporter.OperationStarted(fmt.Sprintf("copy %s -> %s", target.RemotePath, target.LocalPath))
	err := e.copy(ctx, creds, target, outcome)

	elapsed := e.opts.Now().Sub(start)
	outcome.CopyDuration = elapsed.String()
	outcome.BytesCopiedHuman = utils.FormatBytes(outcome.BytesCopied)

	if err != nil {
		outcome.Error = KindOf(err)
		outcome.ErrorMessage = err.Error()
		e.logger.Error("Copy failed", "remote", target.RemotePath, "kind", outcome.Error, "error", err)
		e.reporter.OperationCompleted(false, err.Error(), elapsed)
		return outcome, err
	}

	outcome.Succeeded = true
	e.logger.Info("Copy completed", "files", outcome.FilesCopied, "bytes", outcome.BytesCopiedHuman)
	e.reporter.OperationCompleted(true, "copy completed", elapsed)
	return outcome, nil
}

func (e *Executor) copy(ctx context.Context, creds remote.Credentials, target models.TransferTarget, outcome *models.CopyOutcome) error {
	if err := validate(creds, target.RemotePath, target.LocalPath); err != nil {
		return err
	}

	session, err := e.connect(ctx, creds)
	if err != nil {
		return err
	}
	defer e.disconnect(session, creds)

	entry, err := e.stat(ctx, session, target.RemotePath)
	if err != nil {
		return err
	}

	r := &run{
		executor: e,
		session:  session,
		resolver: NewPathResolver(e.fs, e.logger),
		outcome:  outcome,
	}
	defer func() { outcome.DirectoriesCreated = r.resolver.Created() }()

	switch entry.Kind {
	case models.KindDirectory:
		if !target.Recursive {
			return fmt.Errorf("%w: %s (use --recursive to copy directories)", ErrIsDirectory, target.RemotePath)
		}
		e.logger.Info("Copying directory", "remote", target.RemotePath, "local", target.LocalPath)
		return r.copyDirectory(ctx, target.RemotePath, target.LocalPath)
	case models.KindFile:
		e.logger.Info("Copying file", "remote", target.RemotePath, "local", target.LocalPath)
		return r.copyFile(ctx, entry, target.LocalPath)
	default:
		return fmt.Errorf("%w: %s is neither a regular file nor a directory", ErrTransferIO, target.RemotePath)
	}
}

// TestConnection checks that a session can be opened and, best effort, that
// probePath can be listed. An unreadable path is reported as a warning.
func (e *Executor) TestConnection(ctx context.Context, creds remote.Credentials, probePath string) (*models.ConnectionResult, error) {
	start := e.opts.Now()
	if strings.TrimSpace(probePath) == "" {
		probePath = "/"
	}
	result := &models.ConnectionResult{
		Protocol:   e.opts.Protocol,
		Host:       creds.Host,
		Port:       creds.Port,
		Username:   creds.Username,
		ProbedPath: probePath,
		CheckedAt:  utils.FormatTime(start),
	}
	defer func() { result.Duration = e.opts.Now().Sub(start).String() }()

	if problems := validateCredentials(creds); len(problems) > 0 {
		err := fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, ", "))
		result.Message = err.Error()
		return result, err
	}

	session, err := e.connect(ctx, creds)
	if err != nil {
		result.Message = err.Error()
		return result, err
	}
	defer e.disconnect(session, creds)

	result.PathReadable = true
	if _, err := session.List(ctx, probePath); err != nil {
		result.PathReadable = false
		result.Warning = fmt.Sprintf("%s: %v", probePath, err)
		e.logger.Warn("Probe path is not readable", "path", probePath, "error", err)
	}

	result.Success = true
	result.Message = "connection established"
	return result, nil
}

// ListRemote returns one level of the remote tree at path, in server order.
func (e *Executor) ListRemote(ctx context.Context, creds remote.Credentials, path string) (*models.ListResult, error) {
	problems := validateCredentials(creds)
	if strings.TrimSpace(path) == "" {
		problems = append(problems, "remote path is required")
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, ", "))
	}

	session, err := e.connect(ctx, creds)
	if err != nil {
		return nil, err
	}
	defer e.disconnect(session, creds)

	entry, err := e.stat(ctx, session, path)
	if err != nil {
		return nil, err
	}

	result := &models.ListResult{
		Host:          creds.Host,
		Path:          path,
		Entries:       []models.RemoteEntry{},
		OperationTime: utils.FormatTime(e.opts.Now()),
	}

	if entry.Kind != models.KindDirectory {
		result.Entries = append(result.Entries, entry)
	} else {
		for child, err := range e.walker.Children(ctx, session, path) {
			if err != nil {
				return nil, err
			}
			result.Entries = append(result.Entries, child)
		}
	}

	for _, child := range result.Entries {
		switch child.Kind {
		case models.KindFile:
			result.FileCount++
			result.TotalSizeBytes += child.Size
		case models.KindDirectory:
			result.DirectoryCount++
		default:
			result.OtherCount++
		}
	}
	result.TotalSizeHuman = utils.FormatBytes(result.TotalSizeBytes)
	return result, nil
}

func (e *Executor) connect(ctx context.Context, creds remote.Credentials) (remote.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	e.logger.Info("Connecting", "host", creds.Host, "port", creds.Port, "protocol", e.opts.Protocol)
	session, err := e.dialer.Dial(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnection, creds.Address(), err)
	}
	e.logger.Info("Connected", "host", creds.Host)
	return session, nil
}

func (e *Executor) disconnect(session remote.Session, creds remote.Credentials) {
	if err := session.Close(); err != nil {
		e.logger.Warn("Error closing session", "host", creds.Host, "error", err)
		return
	}
	e.logger.Info("Disconnected", "host", creds.Host)
}

func (e *Executor) stat(ctx context.Context, session remote.Session, path string) (models.RemoteEntry, error) {
	entry, err := session.Stat(ctx, path)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			return models.RemoteEntry{}, fmt.Errorf("%w: %s", ErrRemoteNotFound, path)
		}
		return models.RemoteEntry{}, fmt.Errorf("%w: failed to stat %s: %w", ErrTransferIO, path, err)
	}
	if entry.FullPath == "" {
		entry.FullPath = path
	}
	if entry.Name == "" {
		entry.Name = remote.Base(path)
	}
	return entry, nil
}

// run holds the state of one Copy call.
type run struct {
	executor *Executor
	session  remote.Session
	resolver *PathResolver
	outcome  *models.CopyOutcome
}

func (r *run) copyDirectory(ctx context.Context, remoteDir, localDir string) error {
	e := r.executor
	if err := r.resolver.ResolveDirectoryDestination(localDir); err != nil {
		return err
	}

	for entry, err := range e.walker.Children(ctx, r.session, remoteDir) {
		if err != nil {
			return err
		}
		if err := checkCancelled(ctx); err != nil {
			return err
		}
		if !safeEntryName(entry.Name) {
			e.logger.Warn("Skipping entry with unsafe name", "remote", entry.FullPath)
			r.outcome.Skipped++
			continue
		}

		switch entry.Kind {
		case models.KindDirectory:
			e.logger.Info("Processing directory", "remote", entry.FullPath)
			if err := r.copyDirectory(ctx, entry.FullPath, filepath.Join(localDir, entry.Name)); err != nil {
				return err
			}
		case models.KindFile:
			if err := r.copyFile(ctx, entry, localDir); err != nil {
				return err
			}
		default:
			r.skipOther(entry)
		}
	}
	return nil
}

func (r *run) skipOther(entry models.RemoteEntry) {
	e := r.executor
	switch e.opts.OtherPolicy {
	case OtherWarn:
		e.logger.Warn("Skipping entry that is neither file nor directory", "remote", entry.FullPath)
		r.outcome.Skipped++
	default:
		e.logger.Debug("Skipping entry", "remote", entry.FullPath, "kind", entry.Kind)
	}
}

func (r *run) copyFile(ctx context.Context, entry models.RemoteEntry, localPath string) error {
	e := r.executor
	if err := checkCancelled(ctx); err != nil {
		return err
	}

	dest, err := r.resolver.ResolveFileDestination(entry.Name, localPath)
	if err != nil {
		return err
	}

	e.reporter.FileStarted(entry.FullPath, dest, entry.Size)

	file, err := e.fs.Create(dest)
	if err != nil {
		return fmt.Errorf("%w: failed to create %s: %w", ErrTransferIO, dest, err)
	}

	threshold := e.opts.CallbackThreshold
	if e.opts.ProgressSource == ProgressFromStream {
		threshold = e.opts.StreamThreshold
	}
	throttle := Throttle{Interval: e.opts.ReportInterval, Threshold: threshold}
	state := NewThrottleState(entry.Name, entry.Size, e.opts.Now())
	observe := func(n uint64) {
		if sample, ok := throttle.Observe(state, n, e.opts.Now()); ok {
			e.reporter.Progress(sample)
		}
	}

	sink := &progressSink{ctx: ctx, w: file}
	var onBytes func(uint64)
	if e.opts.ProgressSource == ProgressFromStream {
		sink.onWrite = observe
	} else {
		onBytes = observe
	}

	downloadErr := r.session.Download(ctx, entry.FullPath, sink, onBytes)
	closeErr := file.Close()
	r.outcome.BytesCopied += sink.written

	if downloadErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %s: %w", ErrCancelled, entry.FullPath, ctxErr)
		}
		return fmt.Errorf("%w: %s: %w", ErrTransferIO, entry.FullPath, downloadErr)
	}
	if closeErr != nil {
		return fmt.Errorf("%w: failed to close %s: %w", ErrTransferIO, dest, closeErr)
	}

	if sample, ok := throttle.Finish(state, sink.written, e.opts.Now()); ok {
		e.reporter.Progress(sample)
	}

	item := models.TransferItem{
		RemotePath: entry.FullPath,
		LocalPath:  dest,
		Size:       sink.written,
	}
	if !entry.ModifiedAt.IsZero() {
		item.LastModified = utils.FormatTime(entry.ModifiedAt)
	}
	r.outcome.Items = append(r.outcome.Items, item)
	r.outcome.FilesCopied++

	e.reporter.FileCompleted(entry.FullPath, dest, sink.written)
	return nil
}

func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	return nil
}

func safeEntryName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && name != "." && name != ".."
}

func validateCredentials(creds remote.Credentials) []string {
	var problems []string
	if strings.TrimSpace(creds.Host) == "" {
		problems = append(problems, "host is required")
	}
	if creds.Port <= 0 || creds.Port > 65535 {
		problems = append(problems, "port must be between 1 and 65535")
	}
	if strings.TrimSpace(creds.Username) == "" {
		problems = append(problems, "username is required")
	}
	if strings.TrimSpace(creds.Password) == "" {
		problems = append(problems, "password is required")
	}
	return problems
}

func validate(creds remote.Credentials, remotePath, localPath string) error {
	problems := validateCredentials(creds)
	if strings.TrimSpace(remotePath) == "" {
		problems = append(problems, "remote path is required")
	}
	if strings.TrimSpace(localPath) == "" {
		problems = append(problems, "local path is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(problems, ", "))
	}
	return nil
}
