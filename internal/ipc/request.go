package ipc

import (
	"fmt"
	"time"

	"github.com/tinylib/msgp/msgp"

	"github.com/bamsammich/fileop/internal/op"
)

const requestFields = 18

// AppendPayload encodes the request as a fixed-length msgpack array.
func (m RequestMsg) AppendPayload(b []byte) []byte {
	r := m.Request
	b = msgp.AppendArrayHeader(b, requestFields)
	b = msgp.AppendInt(b, int(r.Kind))
	b = msgp.AppendString(b, r.WorkDir)
	b = appendStrings(b, r.Sources)
	b = appendStrings(b, r.DestNames)
	b = msgp.AppendString(b, r.DestDir)
	b = msgp.AppendInt(b, r.UID)
	b = msgp.AppendInt(b, r.GID)
	b = msgp.AppendUint32(b, r.FileMode)
	b = msgp.AppendUint32(b, r.DirMode)
	b = msgp.AppendUint32(b, r.FileMask)
	b = msgp.AppendUint32(b, r.DirMask)
	b = msgp.AppendUint8(b, uint8(r.Attr))
	b = msgp.AppendBool(b, r.Overwrite)
	b = msgp.AppendBool(b, r.Verify)
	b = msgp.AppendInt64(b, r.BWLimit)
	b = appendStrings(b, r.Exclude)
	b = msgp.AppendInt(b, r.BufferBlocks)
	b = msgp.AppendArrayHeader(b, 2)
	b = msgp.AppendInt(b, r.PathWidth)
	return msgp.AppendInt64(b, int64(r.GraceDelay))
}

//nolint:gocyclo,revive // cyclomatic: one branch per field
func readRequest(b []byte) (op.Request, []byte, error) {
	var (
		r   op.Request
		err error
		n   int
		u8  uint8
		sz  uint32
	)

	if sz, b, err = msgp.ReadArrayHeaderBytes(b); err != nil {
		return r, b, err
	}
	if sz != requestFields {
		return r, b, fmt.Errorf("request has %d fields, want %d", sz, requestFields)
	}
	if n, b, err = msgp.ReadIntBytes(b); err != nil {
		return r, b, err
	}
	r.Kind = op.Kind(n)
	if r.WorkDir, b, err = msgp.ReadStringBytes(b); err != nil {
		return r, b, err
	}
	if r.Sources, b, err = readStrings(b); err != nil {
		return r, b, err
	}
	if r.DestNames, b, err = readStrings(b); err != nil {
		return r, b, err
	}
	if r.DestDir, b, err = msgp.ReadStringBytes(b); err != nil {
		return r, b, err
	}
	if r.UID, b, err = msgp.ReadIntBytes(b); err != nil {
		return r, b, err
	}
	if r.GID, b, err = msgp.ReadIntBytes(b); err != nil {
		return r, b, err
	}
	for _, f := range []*uint32{&r.FileMode, &r.DirMode, &r.FileMask, &r.DirMask} {
		if *f, b, err = msgp.ReadUint32Bytes(b); err != nil {
			return r, b, err
		}
	}
	if u8, b, err = msgp.ReadUint8Bytes(b); err != nil {
		return r, b, err
	}
	r.Attr = op.AttrFlags(u8)
	if r.Overwrite, b, err = msgp.ReadBoolBytes(b); err != nil {
		return r, b, err
	}
	if r.Verify, b, err = msgp.ReadBoolBytes(b); err != nil {
		return r, b, err
	}
	if r.BWLimit, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return r, b, err
	}
	if r.Exclude, b, err = readStrings(b); err != nil {
		return r, b, err
	}
	if r.BufferBlocks, b, err = msgp.ReadIntBytes(b); err != nil {
		return r, b, err
	}

	// Display settings travel as a nested pair.
	if sz, b, err = msgp.ReadArrayHeaderBytes(b); err != nil {
		return r, b, err
	}
	if sz != 2 {
		return r, b, fmt.Errorf("display settings have %d fields, want 2", sz)
	}
	if r.PathWidth, b, err = msgp.ReadIntBytes(b); err != nil {
		return r, b, err
	}
	var grace int64
	if grace, b, err = msgp.ReadInt64Bytes(b); err != nil {
		return r, b, err
	}
	r.GraceDelay = time.Duration(grace)
	return r, b, nil
}

//nolint:gosec // G115: slice lengths are bounded by MaxFrameSize
func appendStrings(b []byte, ss []string) []byte {
	b = msgp.AppendArrayHeader(b, uint32(len(ss)))
	for _, s := range ss {
		b = msgp.AppendString(b, s)
	}
	return b
}

func readStrings(b []byte) ([]string, []byte, error) {
	sz, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, b, err
	}
	if sz == 0 {
		return nil, b, nil
	}
	out := make([]string, sz)
	for i := range out {
		if out[i], b, err = msgp.ReadStringBytes(b); err != nil {
			return nil, b, err
		}
	}
	return out, b, nil
}
