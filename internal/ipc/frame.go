package ipc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// FrameHeaderSize is the size of the frame header in bytes:
	// 4 bytes frame length + 1 byte message type.
	FrameHeaderSize = 5

	// MaxFrameSize is the maximum allowed frame size (including header).
	MaxFrameSize = 1 << 20
)

// Frame is a single message on one of the two pipes.
type Frame struct {
	Payload []byte
	MsgType byte
}

var (
	// ErrFrameTooLarge is returned when a frame exceeds MaxFrameSize.
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	// ErrShortWrite is returned when a pipe accepts fewer bytes than a frame.
	ErrShortWrite = errors.New("short write on channel")
)

// WriteFrame writes a length-prefixed frame to w.
// Wire format: [4-byte length (big-endian)][1-byte msg type][payload]
// The length field covers the type byte and payload. The whole frame goes
// out in one Write so a frame is never interleaved on a pipe.
//
//nolint:gosec // G115: payload length bounded by MaxFrameSize check
func WriteFrame(w io.Writer, f Frame) error {
	if len(f.Payload) > MaxFrameSize-FrameHeaderSize {
		return ErrFrameTooLarge
	}
	totalLen := uint32(1 + len(f.Payload))

	buf := make([]byte, FrameHeaderSize+len(f.Payload))
	binary.BigEndian.PutUint32(buf[0:4], totalLen)
	buf[4] = f.MsgType
	copy(buf[FrameHeaderSize:], f.Payload)

	n, err := w.Write(buf)
	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("write frame: %w (%d of %d bytes)", ErrShortWrite, n, len(buf))
	}
	return nil
}

// ReadFrame reads a length-prefixed frame from r. A stream that ends inside
// a frame yields io.ErrUnexpectedEOF; a clean end between frames yields io.EOF.
func ReadFrame(r io.Reader) (Frame, error) {
	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, err
	}

	totalLen := binary.BigEndian.Uint32(header[0:4])
	if totalLen > MaxFrameSize-4 {
		return Frame{}, ErrFrameTooLarge
	}
	if totalLen < 1 {
		return Frame{}, fmt.Errorf("frame too small: length %d", totalLen)
	}

	f := Frame{MsgType: header[4]}

	payloadLen := totalLen - 1
	if payloadLen > 0 {
		f.Payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return Frame{}, fmt.Errorf("read frame payload: %w", err)
		}
	}

	return f, nil
}
