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
	"testing"
)

func TestDecodeIndicesU16(t *testing.T) {
	raw := make([]byte, 6)
	binary.LittleEndian.PutUint16(raw[0:], 10)
	binary.LittleEndian.PutUint16(raw[2:], 20)
	binary.LittleEndian.PutUint16(raw[4:], 30)

	got, err := decodeIndices(IndexBufferU16, raw, 3)
	if err != nil {
		t.Fatalf("decodeIndices: %v", err)
	}
	want := []uint32{10, 20, 30}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("index %d = %d, want %d", i, got[i], w)
		}
	}
}

func TestDecodeIndicesU32(t *testing.T) {
	raw := make([]byte, 12)
	binary.LittleEndian.PutUint32(raw[0:], 100000)
	binary.LittleEndian.PutUint32(raw[4:], 200000)
	binary.LittleEndian.PutUint32(raw[8:], 300000)

	got, err := decodeIndices(IndexBufferU32, raw, 3)
	if err != nil {
		t.Fatalf("decodeIndices: %v", err)
	}
	if got[0] != 100000 || got[1] != 200000 || got[2] != 300000 {
		t.Errorf("got = %v, want [100000 200000 300000]", got)
	}
}

func TestDecodeIndicesRejectsShortBuffer(t *testing.T) {
	if _, err := decodeIndices(IndexBufferU16, make([]byte, 2), 3); err == nil {
		t.Errorf("short buffer: want error, got nil")
	}
}

func TestDecodeTexCoordsUV32Float(t *testing.T) {
	raw := make([]byte, 16)
	binary.LittleEndian.PutUint32(raw[0:], math.Float32bits(0.25))
	binary.LittleEndian.PutUint32(raw[4:], math.Float32bits(0.75))
	binary.LittleEndian.PutUint32(raw[8:], math.Float32bits(1.0))
	binary.LittleEndian.PutUint32(raw[12:], math.Float32bits(0.0))

	got, err := decodeTexCoords(TexCoordUV32Float, raw, 0, []uint32{0, 1})
	if err != nil {
		t.Fatalf("decodeTexCoords: %v", err)
	}
	if got[0] != (Vec2{X: 0.25, Y: 0.75}) || got[1] != (Vec2{X: 1.0, Y: 0.0}) {
		t.Errorf("got = %v", got)
	}
}

func TestDecodeTexCoordsUV16Unorm(t *testing.T) {
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint16(raw[0:], 65535)
	binary.LittleEndian.PutUint16(raw[2:], 0)

	got, err := decodeTexCoords(TexCoordUV16Unorm, raw, 0, []uint32{0})
	if err != nil {
		t.Fatalf("decodeTexCoords: %v", err)
	}
	if got[0].X != 1.0 || got[0].Y != 0.0 {
		t.Errorf("got[0] = %v, want {1 0}", got[0])
	}
}

func TestDecodeTexCoordsRejectsShortBuffer(t *testing.T) {
	if _, err := decodeTexCoords(TexCoordUV32Float, make([]byte, 4), 0, []uint32{0}); err == nil {
		t.Errorf("short tex-coord buffer: want error, got nil")
	}
}

func TestDecodeFloat16KnownValues(t *testing.T) {
	cases := []struct {
		bits uint16
		want float32
	}{
		{0x0000, 0.0},
		{0x8000, float32(math.Copysign(0, -1))},
		{0x3c00, 1.0},
		{0xbc00, -1.0},
		{0x4000, 2.0},
		{0x3555, 0.33325195},
	}
	for _, tc := range cases {
		got := decodeFloat16(tc.bits)
		if diff := float64(got) - float64(tc.want); diff > 1e-5 || diff < -1e-5 {
			t.Errorf("decodeFloat16(0x%04x) = %v, want %v", tc.bits, got, tc.want)
		}
	}
}

func TestDecodeFloat16Subnormal(t *testing.T) {
	// Smallest positive subnormal: 2^-24.
	got := decodeFloat16(0x0001)
	want := float32(1.0 / (1 << 24))
	if diff := float64(got) - float64(want); diff > 1e-10 || diff < -1e-10 {
		t.Errorf("decodeFloat16(0x0001) = %v, want %v", got, want)
	}
}

func TestDecodeFloat16Infinity(t *testing.T) {
	got := decodeFloat16(0x7c00)
	if !math.IsInf(float64(got), 1) {
		t.Errorf("decodeFloat16(0x7c00) = %v, want +Inf", got)
	}
	got = decodeFloat16(0xfc00)
	if !math.IsInf(float64(got), -1) {
		t.Errorf("decodeFloat16(0xfc00) = %v, want -Inf", got)
	}
}
