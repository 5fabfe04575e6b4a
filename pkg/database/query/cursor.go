package query

import (
	"encoding/binary"
)

// Cursor is the big endian encoding of the last row id seen by a pager
type Cursor []byte

var (
	EmptyCursor Cursor = Cursor([]byte{})
)

func ToCursor(val uint64) Cursor {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, val)
	return b
}

func (c Cursor) ToUint64() uint64 {
	if len(c) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(c)
}
