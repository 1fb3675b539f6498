// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// Package morton interleaves the bits of 2D integer coordinates into a
// single Z-order (Morton) code, used for spatially sorting opacity
// micromaps by UV centroid. (Morton-tiled texture storage in the ommbake
// package uses its own 32-bit interleave.)
package morton

// expand spreads the low 16 bits of v so that each occupies every other
// bit, leaving room to interleave with a second value's bits.
func expand(v uint32) uint64 {
	x := uint64(v) & 0x0000ffff
	x = (x | (x << 8)) & 0x00ff00ff
	x = (x | (x << 4)) & 0x0f0f0f0f
	x = (x | (x << 2)) & 0x33333333
	x = (x | (x << 1)) & 0x55555555
	return x
}

// compact is the inverse of expand: it picks every other bit back out.
func compact(x uint64) uint32 {
	x &= 0x5555555555555555
	x = (x | (x >> 1)) & 0x3333333333333333
	x = (x | (x >> 2)) & 0x0f0f0f0f0f0f0f0f
	x = (x | (x >> 4)) & 0x00ff00ff00ff00ff
	x = (x | (x >> 8)) & 0x0000ffff0000ffff
	return uint32(x)
}

// Encode interleaves x's bits into the even positions and y's bits into
// the odd positions, producing a Z-order code that preserves 2D
// locality: nearby (x, y) tend to map to nearby codes.
func Encode(x, y uint32) uint64 {
	return expand(x) | (expand(y) << 1)
}

// Decode reverses Encode.
func Decode(code uint64) (x, y uint32) {
	return compact(code), compact(code >> 1)
}
