package codec

import (
	"bytes"
	"encoding/binary"
	"hash"
	"io"

	"github.com/iamNilotpal/ignitedb/pkg/errors"
	"github.com/pierrec/xxHash/xxHash32"
)

// hintStaticSize is sequence(8) + keySize(2) + valueSize(4) + entryPos(8).
const hintStaticSize = 22

// Hint is the sidecar record written alongside a data segment that lets
// recovery rebuild the index without replaying every value.
type Hint struct {
	Sequence  uint64
	Key       []byte
	ValueSize uint32
	EntryPos  uint64
	Deleted   bool
}

// NewHint builds a Hint describing where rec lives in its segment.
func NewHint(rec *Record, entryPos uint64) *Hint {
	return &Hint{
		Sequence:  rec.Sequence,
		Key:       rec.Key,
		ValueSize: uint32(len(rec.Value)),
		EntryPos:  entryPos,
		Deleted:   rec.Deleted,
	}
}

// EntrySize is the size, in bytes, of the data record this hint describes.
func (h *Hint) EntrySize() uint64 {
	return recordHeaderSize + uint64(len(h.Key)) + uint64(h.ValueSize)
}

// WriteTo encodes h to w. Unlike the data record, hint entries carry no
// per-entry checksum; the hint file instead ends with a single trailing
// xxHash-32 digest covering the whole file (see HintFileWriter).
func (h *Hint) WriteTo(w io.Writer) (int64, error) {
	buf := make([]byte, hintStaticSize)
	binary.LittleEndian.PutUint64(buf[0:8], h.Sequence)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(len(h.Key)))

	if h.Deleted {
		binary.LittleEndian.PutUint32(buf[10:14], tombstone)
	} else {
		binary.LittleEndian.PutUint32(buf[10:14], h.ValueSize)
	}
	binary.LittleEndian.PutUint64(buf[14:22], h.EntryPos)

	written := 0
	for _, b := range [][]byte{buf, h.Key} {
		n, err := w.Write(b)
		written += n
		if err != nil {
			return int64(written), err
		}
	}
	return int64(written), nil
}

// ReadHintFrom decodes a single Hint from r. Returns io.EOF unmodified when
// r is exhausted before the next hint begins. r must not include the
// trailing file digest (VerifyHintFileDigest strips it before decoding);
// its 4 bytes would otherwise read as a truncated hint.
func ReadHintFrom(r io.Reader) (*Hint, error) {
	buf := make([]byte, hintStaticSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	sequence := binary.LittleEndian.Uint64(buf[0:8])
	keySize := binary.LittleEndian.Uint16(buf[8:10])
	valueSize := binary.LittleEndian.Uint32(buf[10:14])
	entryPos := binary.LittleEndian.Uint64(buf[14:22])
	deleted := valueSize == tombstone

	key := make([]byte, keySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}

	if deleted {
		valueSize = 0
	}

	return &Hint{
		Sequence:  sequence,
		Key:       key,
		ValueSize: valueSize,
		EntryPos:  entryPos,
		Deleted:   deleted,
	}, nil
}

// HintFileWriter wraps a hint file, tracking a running xxHash-32 digest of
// every byte written so Finish can append the file-level trailer the reader
// verifies on recovery.
type HintFileWriter struct {
	w      io.Writer
	hasher hash.Hash32
}

// NewHintFileWriter wraps w, which must be positioned at the start of an
// empty hint file.
func NewHintFileWriter(w io.Writer) *HintFileWriter {
	return &HintFileWriter{w: w, hasher: xxHash32.New(xxhashSeed)}
}

// WriteHint encodes h, writing it to the underlying file and folding its
// bytes into the running digest.
func (hw *HintFileWriter) WriteHint(h *Hint) error {
	var buf countingWriter
	if _, err := h.WriteTo(&buf); err != nil {
		return err
	}
	if _, err := hw.w.Write(buf.bytes); err != nil {
		return err
	}
	hw.hasher.Write(buf.bytes)
	return nil
}

// Finish appends the trailing little-endian xxHash-32 digest covering every
// hint written so far. Must be called exactly once, after the last WriteHint.
func (hw *HintFileWriter) Finish() error {
	var trailer [4]byte
	binary.LittleEndian.PutUint32(trailer[:], hw.hasher.Sum32())
	_, err := hw.w.Write(trailer[:])
	return err
}

type countingWriter struct {
	bytes []byte
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.bytes = append(c.bytes, p...)
	return len(p), nil
}

// VerifyHintFileDigest reads every remaining hint from r (which must be
// positioned at the start of a hint file), checks the trailing file-level
// digest, and returns the decoded hints in order. A digest mismatch returns
// an *errors.StorageError with ErrorCodeInvalidChecksum, signaling the
// caller to fall back to rebuilding hints from the data segment.
func VerifyHintFileDigest(r io.Reader) ([]*Hint, error) {
	hasher := xxHash32.New(xxhashSeed)
	var hints []*Hint

	pending, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if len(pending) < 4 {
		return nil, errors.NewChecksumError(0, 0)
	}

	body := pending[:len(pending)-4]
	trailer := binary.LittleEndian.Uint32(pending[len(pending)-4:])

	hasher.Write(body)
	if found := hasher.Sum32(); found != trailer {
		return nil, errors.NewChecksumError(trailer, found)
	}

	reader := bytes.NewReader(body)
	for {
		h, err := ReadHintFrom(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		hints = append(hints, h)
	}

	return hints, nil
}
