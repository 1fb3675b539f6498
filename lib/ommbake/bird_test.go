// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package ommbake

import (
	"math"
	"testing"
)

func TestGetNumMicroTriangles(t *testing.T) {
	cases := []struct {
		level uint32
		want  uint32
	}{
		{0, 1}, {1, 4}, {2, 16}, {3, 64}, {12, 1 << 24},
	}
	for _, tc := range cases {
		if got := GetNumMicroTriangles(tc.level); got != tc.want {
			t.Errorf("GetNumMicroTriangles(%d) = %d, want %d", tc.level, got, tc.want)
		}
	}
}

func TestGetMicroTriangleCoversWholeMacroTriangle(t *testing.T) {
	macro := NewTriangle(Vec2{}, Vec2{X: 1}, Vec2{Y: 1})
	wantArea := macro.Area2D()

	for level := uint32(1); level <= 4; level++ {
		var total float32
		n := GetNumMicroTriangles(level)
		for i := uint32(0); i < n; i++ {
			total += GetMicroTriangle(macro, i, level).Area2D()
		}
		if diff := math.Abs(float64(total - wantArea)); diff > 1e-4 {
			t.Errorf("level %d: micro-triangle areas summed to %v, want %v", level, total, wantArea)
		}
	}
}

func TestGetMicroTriangleLevelZeroIsMacro(t *testing.T) {
	macro := NewTriangle(Vec2{X: 1, Y: 2}, Vec2{X: 3, Y: 4}, Vec2{X: 5, Y: 1})
	got := GetMicroTriangle(macro, 0, 0)
	if got.P0 != macro.P0 || got.P1 != macro.P1 || got.P2 != macro.P2 {
		t.Errorf("GetMicroTriangle(macro, 0, 0) = %+v, want the macro triangle unchanged", got)
	}
}

func TestBary2IndexStaysWithinRange(t *testing.T) {
	for level := uint32(0); level <= 6; level++ {
		n := GetNumMicroTriangles(level)
		samples := [][3]float32{
			{1, 0, 0}, {0, 1, 0}, {0, 0, 1},
			{1.0 / 3, 1.0 / 3, 1.0 / 3},
			{0.5, 0.25, 0.25},
		}
		for _, s := range samples {
			idx, _ := Bary2Index(s[0], s[1], s[2], level)
			if idx >= n {
				t.Errorf("level %d: Bary2Index(%v) = %d, out of range [0,%d)", level, s, idx, n)
			}
		}
	}
}

func TestBary2IndexCornersAreDeterministic(t *testing.T) {
	idxA, uprightA := Bary2Index(1, 0, 0, 3)
	idxB, uprightB := Bary2Index(1, 0, 0, 3)
	if idxA != idxB || uprightA != uprightB {
		t.Errorf("Bary2Index is not deterministic for repeated identical input")
	}
}
