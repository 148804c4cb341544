package transfer

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"sftpcopy/internal/models"
	"sftpcopy/internal/remote"
)

var ErrWalkerConsumed = errors.New("directory listing already consumed")

type DirectoryWalker struct{}

// Children lists the immediate children of dir. The listing is fetched on
// first iteration, "." and ".." are dropped and server order is kept. A
// failed listing is yielded once as ErrRemoteList. The sequence can be
// ranged over only once.
func (DirectoryWalker) Children(ctx context.Context, session remote.Session, dir string) iter.Seq2[models.RemoteEntry, error] {
	consumed := false
	return func(yield func(models.RemoteEntry, error) bool) {
		if consumed {
			yield(models.RemoteEntry{}, fmt.Errorf("%s: %w", dir, ErrWalkerConsumed))
			return
		}
		consumed = true

		entries, err := session.List(ctx, dir)
		if err != nil {
			yield(models.RemoteEntry{}, fmt.Errorf("%w: %s: %w", ErrRemoteList, dir, err))
			return
		}

		for _, entry := range entries {
			if entry.Name == "." || entry.Name == ".." {
				continue
			}
			if entry.FullPath == "" {
				entry.FullPath = remote.Join(dir, entry.Name)
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}
