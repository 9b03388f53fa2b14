package types

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// entryFixedLength covers height, value and the address length prefix
const entryFixedLength = 8 + 8 + 8

// Entry is the value stored for every unspent output.
type Entry struct {
	BlockHeight uint64
	Value       uint64
	Address     string
}

// EncodeEntry lays the fields out little endian:
// height u64 | value u64 | len(address) u64 | address
func EncodeEntry(e Entry) []byte {
	out := make([]byte, entryFixedLength+len(e.Address))
	binary.LittleEndian.PutUint64(out[0:8], e.BlockHeight)
	binary.LittleEndian.PutUint64(out[8:16], e.Value)
	binary.LittleEndian.PutUint64(out[16:24], uint64(len(e.Address)))
	copy(out[entryFixedLength:], e.Address)
	return out
}

func DecodeEntry(data []byte) (Entry, error) {
	if len(data) < entryFixedLength {
		return Entry{}, errors.Mark(
			errors.Newf("entry truncated: %d bytes", len(data)), ErrCodec,
		)
	}

	addrLen := binary.LittleEndian.Uint64(data[16:24])
	if addrLen != uint64(len(data)-entryFixedLength) {
		return Entry{}, errors.Mark(
			errors.Newf(
				"entry address length %d does not match %d remaining bytes",
				addrLen, len(data)-entryFixedLength,
			),
			ErrCodec,
		)
	}

	return Entry{
		BlockHeight: binary.LittleEndian.Uint64(data[0:8]),
		Value:       binary.LittleEndian.Uint64(data[8:16]),
		Address:     string(data[entryFixedLength:]),
	}, nil
}
