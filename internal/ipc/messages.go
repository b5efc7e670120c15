package ipc

import (
	"fmt"
	"time"

	"github.com/tinylib/msgp/msgp"

	"github.com/bamsammich/fileop/internal/feedback"
	"github.com/bamsammich/fileop/internal/op"
)

// Message type constants. Payload fields are msgpack primitives written in
// a fixed order; both ends of one running binary agree on the layout.
const (
	// Controller -> worker.
	MsgRequest byte = 0x01
	MsgReply   byte = 0x02

	// Worker -> controller.
	MsgStatus   byte = 0x10
	MsgProgress byte = 0x11
	MsgFeedback byte = 0x12
	MsgSummary  byte = 0x13
)

// Indeterminate is the progress value sent before totals are known.
const Indeterminate = -1

// Message is anything that travels inside a frame.
type Message interface {
	MsgType() byte
	AppendPayload(b []byte) []byte
}

// Status names the action the worker is about to take.
type Status struct {
	Text string
}

// Progress carries a percentage in [0,100] or Indeterminate.
type Progress struct {
	Percent int
}

// FeedbackReq asks the controller for a decision.
type FeedbackReq struct {
	Kind feedback.Kind
	Text string
}

// Reply answers the most recent FeedbackReq.
type Reply struct {
	Response feedback.Response
}

// Summary is the worker's final tally, sent just before a clean exit.
type Summary struct {
	FilesCopied      int64
	FilesSkipped     int64
	FilesFailed      int64
	FilesDeleted     int64
	BytesCopied      int64
	DirsCreated      int64
	HardlinksCreated int64
	Elapsed          time.Duration
}

// RequestMsg carries the operation a freshly started worker performs.
type RequestMsg struct {
	Request op.Request
}

func (Status) MsgType() byte      { return MsgStatus }
func (Progress) MsgType() byte    { return MsgProgress }
func (FeedbackReq) MsgType() byte { return MsgFeedback }
func (Reply) MsgType() byte       { return MsgReply }
func (Summary) MsgType() byte     { return MsgSummary }
func (RequestMsg) MsgType() byte  { return MsgRequest }

func (m Status) AppendPayload(b []byte) []byte {
	return msgp.AppendString(b, m.Text)
}

func (m Progress) AppendPayload(b []byte) []byte {
	return msgp.AppendInt(b, m.Percent)
}

func (m FeedbackReq) AppendPayload(b []byte) []byte {
	b = msgp.AppendInt(b, int(m.Kind))
	return msgp.AppendString(b, m.Text)
}

func (m Reply) AppendPayload(b []byte) []byte {
	return msgp.AppendInt(b, int(m.Response))
}

func (m Summary) AppendPayload(b []byte) []byte {
	b = msgp.AppendArrayHeader(b, 8)
	b = msgp.AppendInt64(b, m.FilesCopied)
	b = msgp.AppendInt64(b, m.FilesSkipped)
	b = msgp.AppendInt64(b, m.FilesFailed)
	b = msgp.AppendInt64(b, m.FilesDeleted)
	b = msgp.AppendInt64(b, m.BytesCopied)
	b = msgp.AppendInt64(b, m.DirsCreated)
	b = msgp.AppendInt64(b, m.HardlinksCreated)
	return msgp.AppendInt64(b, int64(m.Elapsed))
}

// Encode wraps m in a frame.
func Encode(m Message) Frame {
	return Frame{MsgType: m.MsgType(), Payload: m.AppendPayload(nil)}
}

// Decode parses a frame into its message. Trailing bytes are an error.
//
//nolint:ireturn // decoder returns the Message union
func Decode(f Frame) (Message, error) {
	var (
		m    Message
		rest []byte
		err  error
	)
	b := f.Payload

	switch f.MsgType {
	case MsgStatus:
		var s Status
		s.Text, rest, err = msgp.ReadStringBytes(b)
		m = s
	case MsgProgress:
		var p Progress
		p.Percent, rest, err = msgp.ReadIntBytes(b)
		if err == nil && (p.Percent < Indeterminate || p.Percent > 100) {
			err = fmt.Errorf("progress %d out of range", p.Percent)
		}
		m = p
	case MsgFeedback:
		var fr FeedbackReq
		var kind int
		kind, rest, err = msgp.ReadIntBytes(b)
		if err == nil {
			fr.Kind = feedback.Kind(kind)
			fr.Text, rest, err = msgp.ReadStringBytes(rest)
		}
		m = fr
	case MsgReply:
		var r Reply
		var resp int
		resp, rest, err = msgp.ReadIntBytes(b)
		r.Response = feedback.Response(resp)
		m = r
	case MsgSummary:
		var s Summary
		s, rest, err = readSummary(b)
		m = s
	case MsgRequest:
		var req op.Request
		req, rest, err = readRequest(b)
		m = RequestMsg{Request: req}
	default:
		return nil, fmt.Errorf("unknown message type 0x%02x", f.MsgType)
	}

	if err != nil {
		return nil, fmt.Errorf("decode message 0x%02x: %w", f.MsgType, err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("decode message 0x%02x: %d trailing bytes", f.MsgType, len(rest))
	}
	return m, nil
}

func readSummary(b []byte) (Summary, []byte, error) {
	var s Summary
	sz, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return s, b, err
	}
	if sz != 8 {
		return s, b, fmt.Errorf("summary has %d fields, want 8", sz)
	}
	var elapsed int64
	fields := []*int64{
		&s.FilesCopied, &s.FilesSkipped, &s.FilesFailed, &s.FilesDeleted,
		&s.BytesCopied, &s.DirsCreated, &s.HardlinksCreated, &elapsed,
	}
	for _, f := range fields {
		if *f, b, err = msgp.ReadInt64Bytes(b); err != nil {
			return s, b, err
		}
	}
	s.Elapsed = time.Duration(elapsed)
	return s, b, nil
}
