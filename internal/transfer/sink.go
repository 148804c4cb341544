package transfer

import (
	"context"
	"io"
)

// progressSink is the local end of a download. It refuses writes once ctx
// is done and, when onWrite is set, reports the running total after each
// write.
type progressSink struct {
	ctx     context.Context
	w       io.Writer
	written uint64
	onWrite func(uint64)
}

func (s *progressSink) Write(p []byte) (int, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := s.w.Write(p)
	if n > 0 {
		s.written += uint64(n)
		if s.onWrite != nil {
			s.onWrite(s.written)
		}
	}
	return n, err
}
