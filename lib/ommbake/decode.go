// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package ommbake

import (
	"encoding/binary"
	"math"
)

// decodeIndices expands a raw 16- or 32-bit index buffer into a
// triangleCount*3 slice of uint32 vertex indices.
func decodeIndices(format IndexBufferFormat, raw []byte, count int) ([]uint32, error) {
	switch format {
	case IndexBufferU16:
		if len(raw) < count*2 {
			return nil, errInvalidArgument("index buffer too small for index count %d", count)
		}
		out := make([]uint32, count)
		for i := range out {
			out[i] = uint32(binary.LittleEndian.Uint16(raw[i*2:]))
		}
		return out, nil
	case IndexBufferU32:
		if len(raw) < count*4 {
			return nil, errInvalidArgument("index buffer too small for index count %d", count)
		}
		out := make([]uint32, count)
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(raw[i*4:])
		}
		return out, nil
	}
	return nil, errInvalidArgument("unrecognised index buffer format %d", format)
}

// decodeTexCoords expands a raw tex-coord buffer into a dense []Vec2,
// one entry per referenced vertex, per spec.md §3/§4.5's {UV16_UNORM,
// UV16_FLOAT, UV32_FLOAT} formats.
func decodeTexCoords(format TexCoordFormat, raw []byte, strideBytes uint32, indices []uint32) ([]Vec2, error) {
	stride := strideBytes
	if stride == 0 {
		stride = format.byteSize()
	}
	if stride == 0 {
		return nil, errInvalidArgument("unrecognised tex-coord format %d", format)
	}

	maxIndex := uint32(0)
	for _, idx := range indices {
		maxIndex = max(maxIndex, idx)
	}
	out := make([]Vec2, maxIndex+1)
	for _, idx := range indices {
		off := uint64(idx) * uint64(stride)
		if off+uint64(format.byteSize()) > uint64(len(raw)) {
			return nil, errInvalidArgument("tex-coord buffer too small for vertex %d", idx)
		}
		switch format {
		case TexCoordUV16Unorm:
			x := binary.LittleEndian.Uint16(raw[off:])
			y := binary.LittleEndian.Uint16(raw[off+2:])
			out[idx] = Vec2{X: float32(x) / 65535, Y: float32(y) / 65535}
		case TexCoordUV16Float:
			x := binary.LittleEndian.Uint16(raw[off:])
			y := binary.LittleEndian.Uint16(raw[off+2:])
			out[idx] = Vec2{X: decodeFloat16(x), Y: decodeFloat16(y)}
		case TexCoordUV32Float:
			x := binary.LittleEndian.Uint32(raw[off:])
			y := binary.LittleEndian.Uint32(raw[off+4:])
			out[idx] = Vec2{X: math.Float32frombits(x), Y: math.Float32frombits(y)}
		}
	}
	return out, nil
}

// decodeFloat16 converts an IEEE-754 binary16 value (as raw bits) to
// float32. There is no ecosystem dependency for this in the corpus (the
// one binary16 user we found, jello's jmath.Float16, only encodes); the
// decode direction is the textbook table-free bit-manipulation, kept
// in that same spirit.
func decodeFloat16(bits uint16) float32 {
	sign := uint32(bits&0x8000) << 16
	exp := uint32(bits&0x7c00) >> 10
	frac := uint32(bits & 0x03ff)

	switch exp {
	case 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal: normalize by shifting frac left until the
		// implicit leading bit appears, adjusting the exponent to match.
		e := int32(0)
		for frac&0x0400 == 0 {
			frac <<= 1
			e--
		}
		e++
		frac &= 0x03ff
		exp32 := uint32(127 - 15 + e)
		return math.Float32frombits(sign | (exp32 << 23) | (frac << 13))
	case 0x1f:
		if frac == 0 {
			return math.Float32frombits(sign | 0x7f800000)
		}
		return math.Float32frombits(sign | 0x7fc00000 | (frac << 13))
	default:
		exp32 := exp - 15 + 127
		return math.Float32frombits(sign | (exp32 << 23) | (frac << 13))
	}
}
