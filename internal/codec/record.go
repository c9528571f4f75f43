// Package codec implements ignitedb's on-disk binary formats: the
// append-only data record and its hint-file counterpart. Both are
// little-endian, checksummed with xxHash-32, and designed to be read
// sequentially without a separate length prefix for the header.
package codec

import (
	"encoding/binary"
	"io"

	"github.com/iamNilotpal/ignitedb/pkg/errors"
	"github.com/pierrec/xxHash/xxHash32"
)

// recordHeaderSize is checksum(4) + sequence(8) + keySize(2) + valueSize(4).
const recordHeaderSize = 18

// tombstone is the sentinel valueSize marking a delete record.
const tombstone uint32 = 0xFFFFFFFF

const (
	// MaxKeySize is the largest key a record may carry, bounded by the
	// 2-byte key-size field.
	MaxKeySize = 0xFFFF

	// MaxValueSize is the largest value a record may carry, bounded by the
	// 4-byte value-size field (tombstone is reserved, so max is one less).
	MaxValueSize = 0xFFFFFFFE
)

// xxhashSeed is the seed used for every checksum in the store; it must never
// change, or every previously written record becomes unverifiable.
const xxhashSeed = 0

// Record is a single append-only log entry: a key/value pair tagged with the
// monotonic sequence number it was written under, or a tombstone recording a
// delete of Key.
type Record struct {
	Sequence uint64
	Key      []byte
	Value    []byte
	Deleted  bool
}

// Size is the encoded length of r in bytes.
func (r *Record) Size() int64 {
	return recordHeaderSize + int64(len(r.Key)) + int64(len(r.Value))
}

// NewRecord builds a live (non-tombstone) record, validating key/value size
// limits.
func NewRecord(sequence uint64, key, value []byte) (*Record, error) {
	if len(key) > MaxKeySize {
		return nil, errors.NewInvalidKeySizeError(len(key), MaxKeySize)
	}
	if len(value) > MaxValueSize {
		return nil, errors.NewInvalidValueSizeError(len(value), MaxValueSize)
	}
	return &Record{Sequence: sequence, Key: key, Value: value}, nil
}

// NewTombstone builds a delete record for key.
func NewTombstone(sequence uint64, key []byte) *Record {
	return &Record{Sequence: sequence, Key: key, Deleted: true}
}

// WriteTo encodes r and writes it to w, returning the number of bytes
// written. The checksum covers every byte after the checksum field itself:
// sequence, key size, value size (or tombstone), key, and value.
func (r *Record) WriteTo(w io.Writer) (int64, error) {
	header := make([]byte, recordHeaderSize)
	binary.LittleEndian.PutUint64(header[4:12], r.Sequence)
	binary.LittleEndian.PutUint16(header[12:14], uint16(len(r.Key)))

	if r.Deleted {
		binary.LittleEndian.PutUint32(header[14:18], tombstone)
	} else {
		binary.LittleEndian.PutUint32(header[14:18], uint32(len(r.Value)))
	}

	hasher := xxHash32.New(xxhashSeed)
	hasher.Write(header[4:])
	hasher.Write(r.Key)
	if !r.Deleted {
		hasher.Write(r.Value)
	}
	binary.LittleEndian.PutUint32(header[0:4], hasher.Sum32())

	written := 0
	for _, buf := range [][]byte{header, r.Key} {
		n, err := w.Write(buf)
		written += n
		if err != nil {
			return int64(written), err
		}
	}

	if !r.Deleted {
		n, err := w.Write(r.Value)
		written += n
		if err != nil {
			return int64(written), err
		}
	}

	return int64(written), nil
}

// ReadRecordFrom decodes a single Record from r, verifying its checksum.
// Returns the underlying io.EOF unmodified when r is exhausted before any
// bytes of a new record are read, so callers can detect end-of-segment.
func ReadRecordFrom(r io.Reader) (*Record, error) {
	header := make([]byte, recordHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	checksum := binary.LittleEndian.Uint32(header[0:4])
	sequence := binary.LittleEndian.Uint64(header[4:12])
	keySize := binary.LittleEndian.Uint16(header[12:14])
	valueSize := binary.LittleEndian.Uint32(header[14:18])
	deleted := valueSize == tombstone

	key := make([]byte, keySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}

	var value []byte
	if !deleted {
		value = make([]byte, valueSize)
		if _, err := io.ReadFull(r, value); err != nil {
			return nil, err
		}
	}

	hasher := xxHash32.New(xxhashSeed)
	hasher.Write(header[4:])
	hasher.Write(key)
	hasher.Write(value)
	if found := hasher.Sum32(); found != checksum {
		return nil, errors.NewChecksumError(checksum, found)
	}

	return &Record{Sequence: sequence, Key: key, Value: value, Deleted: deleted}, nil
}
