package binary

import (
	"io"

	"github.com/pkg/errors"
)

// readVarU32 decodes an unsigned LEB128 value into a uint32, per the Wasm
// binary format (https://webassembly.github.io/spec/core/binary/values.html#binary-int).
func readVarU32(r io.ByteReader) (uint32, error) {
	var result uint32
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, errors.Wrap(err, "varuint32")
		}
		if shift >= 32 {
			return 0, errors.New("varuint32: too many bytes")
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

func readVarU64(r io.ByteReader) (uint64, error) {
	var result uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, errors.Wrap(err, "varuint64")
		}
		if shift >= 64 {
			return 0, errors.New("varuint64: too many bytes")
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

func readVarI32(r io.ByteReader) (int32, error) {
	var result int64
	var shift uint
	var b byte
	var err error
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, errors.Wrap(err, "varint32")
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift >= 32 {
			return 0, errors.New("varint32: too many bytes")
		}
	}
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	return int32(result), nil
}

func readVarI64(r io.ByteReader) (int64, error) {
	var result int64
	var shift uint
	var b byte
	var err error
	for {
		b, err = r.ReadByte()
		if err != nil {
			return 0, errors.Wrap(err, "varint64")
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift >= 64 {
			return 0, errors.New("varint64: too many bytes")
		}
	}
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	return result, nil
}

func readByte(r io.ByteReader) (byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, errors.Wrap(err, "byte")
	}
	return b, nil
}

func readName(r io.ByteReader) (string, error) {
	n, err := readVarU32(r)
	if err != nil {
		return "", errors.Wrap(err, "name length")
	}
	buf := make([]byte, n)
	for i := range buf {
		b, err := r.ReadByte()
		if err != nil {
			return "", errors.Wrap(err, "name bytes")
		}
		buf[i] = b
	}
	return string(buf), nil
}

func readBytes(r io.ByteReader, n uint32) ([]byte, error) {
	buf := make([]byte, n)
	for i := range buf {
		b, err := r.ReadByte()
		if err != nil {
			return nil, errors.Wrap(err, "bytes")
		}
		buf[i] = b
	}
	return buf, nil
}

func readF32Bits(r io.ByteReader) (uint32, error) {
	var v uint32
	for i := 0; i < 4; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, errors.Wrap(err, "f32")
		}
		v |= uint32(b) << (8 * i)
	}
	return v, nil
}

func readF64Bits(r io.ByteReader) (uint64, error) {
	var v uint64
	for i := 0; i < 8; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, errors.Wrap(err, "f64")
		}
		v |= uint64(b) << (8 * i)
	}
	return v, nil
}

// Exported aliases of the LEB128/primitive readers above, for
// internal/exec's instruction decoder: the interpreter walks the same
// instruction-encoding primitives the translator used to find function
// body boundaries in the first place, so it has no business re-implementing
// them.
var (
	ReadVarU32  = readVarU32
	ReadVarU64  = readVarU64
	ReadVarI32  = readVarI32
	ReadVarI64  = readVarI64
	ReadByte    = readByte
	ReadF32Bits = readF32Bits
	ReadF64Bits = readF64Bits
)
