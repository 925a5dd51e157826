package riffwave

import (
	"errors"
	"fmt"
	"io"
)

// byteCursor tracks the absolute position in a random access source so the
// chunk scanner and the data reader never have to query the source for it.
type byteCursor struct {
	rs   io.ReadSeeker
	pos  int64
	size int64
}

func newByteCursor(rs io.ReadSeeker) (*byteCursor, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to measure source: %w", err)
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind source: %w", err)
	}

	return &byteCursor{rs: rs, size: size}, nil
}

// Read implements io.Reader so the cursor can back a riff.Parser.
func (c *byteCursor) Read(p []byte) (int, error) {
	n, err := c.rs.Read(p)
	c.pos += int64(n)

	return n, err
}

// readN reads up to n bytes. A short result is only returned together with
// io.EOF or io.ErrUnexpectedEOF.
func (c *byteCursor) readN(n int) ([]byte, error) {
	buf := make([]byte, n)

	got, err := io.ReadFull(c, buf)
	if err != nil {
		return buf[:got], err
	}

	return buf, nil
}

// readAt reads n bytes at an absolute offset.
func (c *byteCursor) readAt(offset int64, n int) ([]byte, error) {
	if err := c.seekTo(offset); err != nil {
		return nil, err
	}

	return c.readN(n)
}

// peekByte returns the next byte without consuming it.
func (c *byteCursor) peekByte() (byte, error) {
	var b [1]byte

	n, err := c.Read(b[:])
	if n == 0 {
		if err == nil {
			err = io.EOF
		}

		return 0, err
	}

	if err := c.seekTo(c.pos - 1); err != nil {
		return 0, err
	}

	return b[0], nil
}

func (c *byteCursor) skip(n int64) error {
	return c.seekTo(c.pos + n)
}

func (c *byteCursor) seekTo(offset int64) error {
	if offset == c.pos {
		return nil
	}

	pos, err := c.rs.Seek(offset, io.SeekStart)
	if err != nil {
		return fmt.Errorf("failed to seek to %d: %w", offset, err)
	}

	c.pos = pos

	return nil
}

// remaining is the number of source bytes after the current position.
func (c *byteCursor) remaining() int64 {
	return max(c.size-c.pos, 0)
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
