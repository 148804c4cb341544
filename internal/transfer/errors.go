package transfer

import (
	"errors"

	"sftpcopy/internal/models"
)

var (
	ErrValidation     = errors.New("invalid parameters")
	ErrConnection     = errors.New("connection failed")
	ErrRemoteNotFound = errors.New("remote path not found")
	ErrIsDirectory    = errors.New("remote path is a directory")
	ErrRemoteList     = errors.New("remote listing failed")
	ErrTransferIO     = errors.New("transfer failed")
	ErrCancelled      = errors.New("copy cancelled")
)

var errorKinds = []struct {
	err  error
	kind models.ErrorKind
}{
	{ErrValidation, models.ErrorKindValidation},
	{ErrConnection, models.ErrorKindConnection},
	{ErrRemoteNotFound, models.ErrorKindRemoteNotFound},
	{ErrIsDirectory, models.ErrorKindIsDirectory},
	{ErrRemoteList, models.ErrorKindRemoteList},
	{ErrCancelled, models.ErrorKindCancelled},
	{ErrTransferIO, models.ErrorKindTransferIO},
}

// KindOf maps err to its taxonomy kind. Cancellation wins over I/O because
// an interrupted download surfaces both.
func KindOf(err error) models.ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return models.ErrorKindUnknown
}
