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
	"testing"
)

func TestSerializeRoundTripsStates4State(t *testing.T) {
	w := newWorkItem(NewTriangle(Vec2{}, Vec2{X: 1}, Vec2{Y: 1}), 1, OMMFormatOC1_4State, 0)
	states := []OpacityState{StateOpaque, StateTransparent, StateUnknownOpaque, StateUnknownTransparent}
	for i, s := range states {
		w.SetState(i, s)
	}

	result, err := Serialize([]*OmmWorkItem{w}, 1, false)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if len(result.DescArray) != 1 {
		t.Fatalf("len(DescArray) = %d, want 1", len(result.DescArray))
	}
	desc := result.DescArray[0]
	if desc.SubdivisionLevel != 1 || desc.Format != OMMFormatOC1_4State || desc.Offset != 0 {
		t.Errorf("descriptor = %+v, want {Level:1 Format:OC1_4State Offset:0}", desc)
	}
	for i, want := range states {
		if got := UnpackState(OMMFormatOC1_4State, result.ArrayData, uint32(i)); got != want {
			t.Errorf("UnpackState(%d) = %v, want %v", i, got, want)
		}
	}
	if result.IndexFormat != IndexFormatI16 {
		t.Fatalf("IndexFormat = %v, want I16", result.IndexFormat)
	}
	if got := int16(binary.LittleEndian.Uint16(result.IndexBuffer)); got != 0 {
		t.Errorf("index[0] = %d, want 0 (descriptor offset)", got)
	}
}

func TestSerializeSpecialIndexWritesSentinel(t *testing.T) {
	w := newWorkItem(NewTriangle(Vec2{}, Vec2{X: 1}, Vec2{Y: 1}), 0, OMMFormatOC1_4State, 0)
	w.SpecialIndex = SpecialIndexFullyOpaque

	result, err := Serialize([]*OmmWorkItem{w}, 1, false)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if len(result.DescArray) != 0 {
		t.Errorf("special-only bake: DescArray = %v, want empty", result.DescArray)
	}
	if len(result.ArrayData) != 0 {
		t.Errorf("special-only bake: ArrayData len = %d, want 0", len(result.ArrayData))
	}
	got := int16(binary.LittleEndian.Uint16(result.IndexBuffer))
	if got != int16(SpecialIndexFullyOpaque) {
		t.Errorf("index[0] = %d, want %d", got, SpecialIndexFullyOpaque)
	}
}

func TestSerializeUnclaimedPrimitiveDefaultsToFullyUnknownOpaque(t *testing.T) {
	w := newWorkItem(NewTriangle(Vec2{}, Vec2{X: 1}, Vec2{Y: 1}), 0, OMMFormatOC1_4State, 0)
	w.SpecialIndex = SpecialIndexFullyOpaque

	// triCount is 2 but only primitive 0 is claimed by a work item;
	// primitive 1 (e.g. a skipped/degenerate triangle) must fall back to
	// the FullyUnknownOpaque sentinel.
	result, err := Serialize([]*OmmWorkItem{w}, 2, false)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got := int16(binary.LittleEndian.Uint16(result.IndexBuffer[2:]))
	if got != int16(SpecialIndexFullyUnknownOpaque) {
		t.Errorf("index[1] = %d, want %d (unclaimed primitive default)", got, SpecialIndexFullyUnknownOpaque)
	}
}

func TestPackIndexBufferNarrowsAtBoundary(t *testing.T) {
	small := make([]int32, 32767)
	format, buf := packIndexBuffer(small, false)
	if format != IndexFormatI16 || len(buf) != len(small)*2 {
		t.Errorf("32767 indices: format=%v len=%d, want I16 and %d bytes", format, len(buf), len(small)*2)
	}

	large := make([]int32, 32768)
	format, buf = packIndexBuffer(large, false)
	if format != IndexFormatI32 || len(buf) != len(large)*4 {
		t.Errorf("32768 indices: format=%v len=%d, want I32 and %d bytes", format, len(buf), len(large)*4)
	}
}

func TestPackIndexBufferForce32BitIndices(t *testing.T) {
	small := []int32{-1, 0, 1}
	format, buf := packIndexBuffer(small, true)
	if format != IndexFormatI32 || len(buf) != 12 {
		t.Errorf("force32BitIndices: format=%v len=%d, want I32 and 12 bytes", format, len(buf))
	}
}

func TestPackStateCollapsesUnknownFor2State(t *testing.T) {
	cases := []struct {
		state OpacityState
		want  uint8
	}{
		{StateOpaque, 1},
		{StateUnknownOpaque, 1},
		{StateTransparent, 0},
		{StateUnknownTransparent, 0},
	}
	for _, tc := range cases {
		if got := packState(OMMFormatOC1_2State, tc.state); got != tc.want {
			t.Errorf("packState(OC1_2State, %v) = %d, want %d", tc.state, got, tc.want)
		}
	}
}

func TestSerializeRoundTrips2State(t *testing.T) {
	w := newWorkItem(NewTriangle(Vec2{}, Vec2{X: 1}, Vec2{Y: 1}), 2, OMMFormatOC1_2State, 0)
	states := []OpacityState{
		StateOpaque, StateTransparent, StateOpaque, StateTransparent,
		StateUnknownOpaque, StateUnknownTransparent, StateOpaque, StateTransparent,
		StateTransparent, StateOpaque, StateTransparent, StateOpaque,
		StateOpaque, StateOpaque, StateTransparent, StateTransparent,
	}
	for i, s := range states {
		w.SetState(i, s)
	}
	result, err := Serialize([]*OmmWorkItem{w}, 1, false)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	for i, s := range states {
		want := StateTransparent
		if s == StateOpaque || s == StateUnknownOpaque {
			want = StateOpaque
		}
		if got := UnpackState(OMMFormatOC1_2State, result.ArrayData, uint32(i)); got != want {
			t.Errorf("UnpackState(%d) = %v, want %v (2-state collapse of %v)", i, got, want, s)
		}
	}
}
