package nativefunc

import "math"

// EncodeF32 reinterprets f's bits into the low 32 bits of a uint64, zero
// extended: Wasm's flat value stack is untyped uint64, so f32 values travel
// as their bit pattern the way they do across the rest of this engine's
// VMContext ABI.
func EncodeF32(f float32) uint64 {
	return uint64(math.Float32bits(f))
}

// DecodeF32 is the inverse of EncodeF32.
func DecodeF32(raw uint64) float32 {
	return math.Float32frombits(uint32(raw))
}

// EncodeF64 reinterprets f's bits into a uint64.
func EncodeF64(f float64) uint64 {
	return math.Float64bits(f)
}

// DecodeF64 is the inverse of EncodeF64.
func DecodeF64(raw uint64) float64 {
	return math.Float64frombits(raw)
}
