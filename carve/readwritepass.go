package carve

import (
	"errors"
	"io"
)

// Pairs a source and a destination so a long sequence of reads and writes can
// be issued without checking errors after each one. Once anything fails, every
// further call is skipped and the first error is kept.
type ReadWriteErrorPass struct {
	r       io.Reader
	w       io.Writer
	err     error
	read    int64 // Total bytes read from r, including partial reads
	written int64 // Total bytes written to w
}

func NewReadWriteErrorPass(r io.Reader, w io.Writer) *ReadWriteErrorPass {
	return &ReadWriteErrorPass{r: r, w: w}
}

func (rwep *ReadWriteErrorPass) loopError(b []byte, f func([]byte) (int, error), count *int64) (int, error) {
	if rwep.err != nil {
		return 0, rwep.err
	}
	total := 0
	for total < len(b) {
		n, err := f(b[total:])
		total += n
		*count += int64(n)
		if total >= len(b) {
			break
		}
		if err != nil {
			// Same convention as io.ReadFull: EOF only if nothing came through at all
			if err == io.EOF && total > 0 {
				err = io.ErrUnexpectedEOF
			}
			rwep.err = err
			return total, err
		}
		if n == 0 {
			rwep.err = errors.New("ReadWriteErrorPass made no progress")
			return total, rwep.err
		}
	}
	return total, nil
}

// Read until the whole slice is filled (blocking). Skips if an error is already present
func (rwep *ReadWriteErrorPass) Read(b []byte) (int, error) {
	return rwep.loopError(b, rwep.r.Read, &rwep.read)
}

// Write the whole slice (blocking). Skips if an error is already present
func (rwep *ReadWriteErrorPass) Write(b []byte) (int, error) {
	return rwep.loopError(b, rwep.w.Write, &rwep.written)
}

func (rwep *ReadWriteErrorPass) ReadPass(b []byte) int {
	val, _ := rwep.Read(b)
	return val
}

func (rwep *ReadWriteErrorPass) WritePass(b []byte) int {
	val, _ := rwep.Write(b)
	return val
}

// Move exactly n bytes from source to destination, never more than len(buf) at
// a time. Returns how much made it to the destination
func (rwep *ReadWriteErrorPass) CopyPass(n int64, buf []byte) int64 {
	var copied int64
	for copied < n && rwep.err == nil {
		block := buf
		if remaining := n - copied; remaining < int64(len(block)) {
			block = block[:remaining]
		}
		got := rwep.ReadPass(block)
		if rwep.err != nil {
			break
		}
		copied += int64(rwep.WritePass(block[:got]))
	}
	return copied
}

func (rwep *ReadWriteErrorPass) IsPass() error {
	return rwep.err
}

func (rwep *ReadWriteErrorPass) BytesRead() int64 {
	return rwep.read
}

func (rwep *ReadWriteErrorPass) BytesWritten() int64 {
	return rwep.written
}
