// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package morton

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []struct{ x, y uint32 }{
		{0, 0},
		{1, 0},
		{0, 1},
		{1, 1},
		{0xffff, 0},
		{0, 0xffff},
		{0xffff, 0xffff},
		{1234, 5678},
		{8191, 4095},
	}
	for _, tc := range cases {
		code := Encode(tc.x, tc.y)
		gotX, gotY := Decode(code)
		if gotX != tc.x || gotY != tc.y {
			t.Errorf("Encode/Decode(%d,%d): round-trip gave (%d,%d)", tc.x, tc.y, gotX, gotY)
		}
	}
}

func TestEncodePreservesLocality(t *testing.T) {
	// A minimal sanity check: a unit step in x or in y yields a code
	// distinct from the base code.
	base := Encode(100, 100)
	right := Encode(101, 100)
	down := Encode(100, 101)
	if right == base || down == base {
		t.Fatalf("adjacent coordinates collided with base code %d", base)
	}
}

func TestEncodeDistinctForDistinctInputs(t *testing.T) {
	seen := make(map[uint64]bool)
	for x := uint32(0); x < 32; x++ {
		for y := uint32(0); y < 32; y++ {
			code := Encode(x, y)
			if seen[code] {
				t.Fatalf("Encode(%d,%d) collided with a previous code", x, y)
			}
			seen[code] = true
		}
	}
}
