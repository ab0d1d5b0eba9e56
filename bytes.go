package gfx

import (
	"encoding/binary"
	"math"
)

// Float32Bytes packs a float32 slice into little-endian bytes, the layout
// buffer and uniform uploads expect.
func Float32Bytes(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// Uint32Bytes packs a uint32 slice into little-endian bytes.
func Uint32Bytes(v []uint32) []byte {
	out := make([]byte, len(v)*4)
	for i, u := range v {
		binary.LittleEndian.PutUint32(out[i*4:], u)
	}
	return out
}

// Uint16Bytes packs a uint16 slice into little-endian bytes.
func Uint16Bytes(v []uint16) []byte {
	out := make([]byte, len(v)*2)
	for i, u := range v {
		binary.LittleEndian.PutUint16(out[i*2:], u)
	}
	return out
}
