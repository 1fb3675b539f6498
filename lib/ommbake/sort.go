// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package ommbake

import (
	"sort"

	"github.com/opacitymicromap/ommbake/internal/morton"
)

// kSpatialGridBits is the per-axis resolution of the Morton grid a work
// item's UV centroid is quantized into before sorting (spec.md §4.9).
const kSpatialGridBits = 13
const kSpatialGridSize = 1 << kSpatialGridBits

// sortKey returns the descending-sort key for work item i among items,
// per spec.md §4.9: special items key off the work-item index under a
// distinguishing high bit; regular items key off (level, Morton code of
// the MirrorOnce-quantized UV centroid).
func sortKey(items []*OmmWorkItem, i int) uint64 {
	w := items[i]
	if w.disabled {
		return 0
	}
	if w.IsSpecial() {
		return (uint64(1) << 63) | uint64(i)
	}
	centroid := Vec2{
		(w.UVTriangle.P0.X + w.UVTriangle.P1.X + w.UVTriangle.P2.X) / 3,
		(w.UVTriangle.P0.Y + w.UVTriangle.P1.Y + w.UVTriangle.P2.Y) / 3,
	}
	gx := mirrorOnceAxis(int32(centroid.X*kSpatialGridSize), kSpatialGridSize)
	gy := mirrorOnceAxis(int32(centroid.Y*kSpatialGridSize), kSpatialGridSize)
	code := morton.Encode(uint32(gx), uint32(gy))
	return (uint64(w.Level) << 60) | code
}

// MicromapSpatialSort reorders items in place, descending by sortKey:
// higher subdivision levels first, then by Morton proximity of their UV
// centroid, so that consumers walking the descriptor array in order see
// good cache locality (spec.md §4.9). Descriptor assignment happens
// later, during serialization, so only the relative order among
// non-special items is observable in the final output; any interleaving
// of disabled/special entries is immaterial since neither consumes a
// descriptor slot.
func MicromapSpatialSort(items []*OmmWorkItem) {
	keys := make([]uint64, len(items))
	for i := range items {
		keys[i] = sortKey(items, i)
	}
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return keys[idx[a]] > keys[idx[b]] })

	sorted := make([]*OmmWorkItem, len(items))
	for dst, src := range idx {
		sorted[dst] = items[src]
	}
	copy(items, sorted)
}
