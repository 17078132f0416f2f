package mem

import "fmt"
import "io"

import "github.com/bnclabs/gomem/api"

// Buffer is a linear byte-addressable view over a segment, bridging
// to copy based APIs through io.ReaderAt and io.WriterAt. Every
// access re-validates the segment's scope, unless the segment was
// pinned when the view was taken, in which case the window is
// resolved once and the liveness check skipped.
type Buffer struct {
	seg    *Segment
	direct []byte // pre-resolved window, pinned segments only
}

// View bridge this segment to a linear byte-addressable buffer.
// Segments larger than Maxviewsize cannot be bridged.
func (seg *Segment) View() (*Buffer, error) {
	if err := seg.scope.CheckValidState(); err != nil {
		return nil, err
	}
	if seg.length > Maxviewsize {
		fmsg := "%w: segment of %v bytes is too large to bridge"
		return nil, fmt.Errorf(fmsg, ErrorUnsupported, seg.length)
	}
	buf := &Buffer{seg: seg}
	if seg.IsPinned() {
		buf.direct = seg.window(0, seg.length)
	}
	return buf, nil
}

// ReadAt implement io.ReaderAt interface, returns io.EOF on a read
// truncated by the end of the segment.
func (buf *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("%w: offset %v", ErrorInvalidArgument, off)
	}
	// liveness before the EOF clamp, a dead scope is never just EOF.
	if buf.direct == nil {
		if err := buf.seg.scope.CheckValidState(); err != nil {
			return 0, err
		}
	}
	if off >= buf.seg.length {
		return 0, io.EOF
	}
	n := int64(len(p))
	if max := buf.seg.length - off; n > max {
		n = max
	}
	if buf.direct != nil {
		copy(p, buf.direct[off:off+n])
	} else {
		if err := buf.seg.checkRange(off, n, false); err != nil {
			return 0, err
		}
		copy(p, buf.seg.window(off, n))
	}
	if n < int64(len(p)) {
		return int(n), io.EOF
	}
	return int(n), nil
}

// WriteAt implement io.WriterAt interface, writes are never partial:
// a window that does not fit fails without touching memory.
func (buf *Buffer) WriteAt(p []byte, off int64) (int, error) {
	n := int64(len(p))
	if buf.direct != nil {
		if buf.seg.IsReadOnly() {
			fmsg := "%w: cannot write to read-only segment"
			return 0, fmt.Errorf(fmsg, ErrorUnsupported)
		}
		if buf.seg.outofbounds(off, n) {
			fmsg := "%w: write [%v,+%v) outside segment of %v bytes"
			return 0, fmt.Errorf(
				fmsg, ErrorInvalidArgument, off, n, buf.seg.length)
		}
		copy(buf.direct[off:off+n], p)
		return int(n), nil
	}
	if err := buf.seg.checkRange(off, n, true); err != nil {
		return 0, err
	}
	copy(buf.seg.window(off, n), p)
	return int(n), nil
}

// ByteSize implement api.Region{} interface.
func (buf *Buffer) ByteSize() int64 {
	return buf.seg.length
}

// IsAlive implement api.Region{} interface.
func (buf *Buffer) IsAlive() bool {
	return buf.seg.IsAlive()
}

// Close implement api.Region{} interface, closes the bridged segment.
func (buf *Buffer) Close() error {
	return buf.seg.Close()
}

var _ api.Region = (*Buffer)(nil)
