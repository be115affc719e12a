// Package pipe provides a pipe whose read end collects at most max bytes
// written by the child process
package pipe

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Buffer holds the write end of a pipe for the child process and the
// bytes collected from the read end
type Buffer struct {
	W   *os.File
	Max int64

	buf  bytes.Buffer
	done chan struct{}
}

// NewBuffer creates an os pipe collecting at most max bytes. The rest is
// discarded so the writer never blocks or gets SIGPIPE.
// Caller need to close W or call Wait
func NewBuffer(max int64) (*Buffer, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	b := &Buffer{
		W:    w,
		Max:  max,
		done: make(chan struct{}),
	}
	go func() {
		defer close(b.done)
		defer r.Close()
		// one extra byte tells a truncated output
		io.CopyN(&b.buf, r, max+1)
		io.Copy(io.Discard, r)
	}()
	return b, nil
}

// Wait closes the parent write end and waits until every copy of it was
// closed, usually once the child process exited
func (b *Buffer) Wait() {
	b.W.Close()
	<-b.done
}

// Bytes returns at most Max collected bytes, valid after Wait
func (b *Buffer) Bytes() []byte {
	p := b.buf.Bytes()
	if int64(len(p)) > b.Max {
		p = p[:b.Max]
	}
	return p
}

// Truncated reports whether more than Max bytes were written
func (b *Buffer) Truncated() bool {
	return int64(b.buf.Len()) > b.Max
}

func (b *Buffer) String() string {
	return fmt.Sprintf("Buffer[%d/%d]", len(b.Bytes()), b.Max)
}
