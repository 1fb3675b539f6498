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

	"github.com/cespare/xxhash/v2"
)

// stateBuffer is the per-micro-triangle state storage a work item owns.
// fourState is the only stored classification; Get3State derives the
// 3-state view (UnknownTransparent folded into UnknownOpaque) from it on
// every call, so the two views cannot drift apart.
type stateBuffer struct {
	fourState []OpacityState
}

func newStateBuffer(n int) stateBuffer {
	return stateBuffer{fourState: make([]OpacityState, n)}
}

func (b stateBuffer) Len() int { return len(b.fourState) }

func (b stateBuffer) SetState(i int, s OpacityState) { b.fourState[i] = s }

func (b stateBuffer) GetState(i int) OpacityState { return b.fourState[i] }

func (b stateBuffer) Get3State(i int) OpacityState { return b.fourState[i].To3State() }

// OmmWorkItem is one distinct (UV triangle, subdivision level, format)
// unit of classification work, shared by every source primitive with
// identical geometry at that level and format (spec.md §3).
type OmmWorkItem struct {
	Level  uint32
	Format OMMFormat

	UVTriangle Triangle

	PrimitiveIndices []uint32

	states stateBuffer

	DescOffset   int32 // valid once assigned by the serializer
	SpecialIndex SpecialIndex

	// disabled marks a work item that has been merged into another and
	// no longer carries any primitive indices of its own.
	disabled bool
}

func newWorkItem(uv Triangle, level uint32, format OMMFormat, primIndex uint32) *OmmWorkItem {
	return &OmmWorkItem{
		Level:            level,
		Format:           format,
		UVTriangle:       uv,
		PrimitiveIndices: []uint32{primIndex},
		states:           newStateBuffer(int(GetNumMicroTriangles(level))),
	}
}

// IsSpecial reports whether the work item has been collapsed to a
// sentinel index and so consumes no array slot.
func (w *OmmWorkItem) IsSpecial() bool { return w.SpecialIndex != 0 }

// NumMicroTriangles returns 4^Level, the length of the item's state
// buffer.
func (w *OmmWorkItem) NumMicroTriangles() int { return w.states.Len() }

// SetState / GetState / Get3State expose the item's per-micro-triangle
// classification; Get3State is always the UnknownTransparent→
// UnknownOpaque projection of GetState (spec.md §9).
func (w *OmmWorkItem) SetState(i int, s OpacityState) { w.states.SetState(i, s) }
func (w *OmmWorkItem) GetState(i int) OpacityState    { return w.states.GetState(i) }
func (w *OmmWorkItem) Get3State(i int) OpacityState   { return w.states.Get3State(i) }

// hash3State returns the unseeded xxhash-64 digest of the item's 3-state
// buffer, used by exact deduplication (which applies the fixed seed via
// mixSeed). LSH signatures are hashed separately by signatureHash.
func (w *OmmWorkItem) hash3State() uint64 {
	buf := make([]byte, w.states.Len())
	for i := range buf {
		buf[i] = byte(w.Get3State(i))
	}
	return xxhash.Sum64(buf)
}

// workItemKey identifies work items eligible to share a single
// classification: same UV triangle, subdivision level and format.
type workItemKey struct {
	level      uint32
	format     OMMFormat
	p0, p1, p2 Vec2
}

func workItemKeyFor(uv Triangle, level uint32, format OMMFormat) workItemKey {
	return workItemKey{level: level, format: format, p0: uv.P0, p1: uv.P1, p2: uv.P2}
}

// setupOptions carries the subset of BakeInputDesc fields SetupWorkItems
// needs, independent of the rest of the baking pipeline.
type setupOptions struct {
	ommFormat                 OMMFormat
	ommFormats                []OMMFormat // per-primitive, optional
	subdivisionLevels         []uint32    // per-primitive, optional; 14 means "disabled", other values > 12 mean "unset"
	maxSubdivisionLevel       uint32
	dynamicSubdivisionScale   float32
	textureSize               Vec2i
	disableDuplicateDetection bool
}

// decodeUV fetches the UV triangle of primitive i from a decoded
// tex-coord buffer (already expanded to float32 pairs by the caller).
func decodeUV(texCoords []Vec2, i0, i1, i2 uint32) Triangle {
	return NewTriangle(texCoords[i0], texCoords[i1], texCoords[i2])
}

// SetupWorkItems builds one OmmWorkItem per distinct (UV triangle, level,
// format) group across all source triangles, per spec.md §4.5.
// skipped lists the indices of primitives that received no work item
// (degenerate geometry or a disabled subdivision level); they keep the
// default FullyUnknownOpaque index fill.
func SetupWorkItems(indices []uint32, texCoords []Vec2, opt setupOptions) (items []*OmmWorkItem, skipped []uint32, err error) {
	triCount := len(indices) / 3
	byKey := make(map[workItemKey]*OmmWorkItem, triCount)

	for i := 0; i < triCount; i++ {
		i0, i1, i2 := indices[3*i], indices[3*i+1], indices[3*i+2]
		if int(i0) >= len(texCoords) || int(i1) >= len(texCoords) || int(i2) >= len(texCoords) {
			return nil, nil, errInvalidArgument("primitive %d references out-of-range tex-coord index", i)
		}
		uv := decodeUV(texCoords, i0, i1, i2)

		format := opt.ommFormat
		if opt.ommFormats != nil {
			format = opt.ommFormats[i]
		}

		level := calculateSubdivisionLevel(uv, opt, i)
		if level == kDisabledSubdivisionLevel || uv.IsDegenerate() {
			skipped = append(skipped, uint32(i))
			continue
		}

		key := workItemKeyFor(uv, level, format)
		if existing, ok := byKey[key]; ok && !opt.disableDuplicateDetection {
			existing.PrimitiveIndices = append(existing.PrimitiveIndices, uint32(i))
			continue
		}
		w := newWorkItem(uv, level, format, uint32(i))
		if !opt.disableDuplicateDetection {
			byKey[key] = w
		}
		items = append(items, w)
	}
	return items, skipped, nil
}

// calculateSubdivisionLevel derives primitive i's subdivision level per
// spec.md §4.5: an explicit per-primitive override wins (including
// kDisabledSubdivisionLevel, which SetupWorkItems then skips); otherwise, if
// dynamicSubdivisionScale > 0, the level is derived from the triangle's
// texel footprint; otherwise maxSubdivisionLevel applies uniformly.
func calculateSubdivisionLevel(uv Triangle, opt setupOptions, i int) uint32 {
	if opt.subdivisionLevels != nil {
		if l := opt.subdivisionLevels[i]; l <= kMaxSubdivLevel || l == kDisabledSubdivisionLevel {
			return l
		}
	}
	if opt.dynamicSubdivisionScale <= 0 {
		return opt.maxSubdivisionLevel
	}
	return calculateDynamicSubdivisionLevel(uv, opt.textureSize, opt.dynamicSubdivisionScale, opt.maxSubdivisionLevel)
}

// calculateDynamicSubdivisionLevel implements L = min(floor(0.5 *
// log2(NextPow2(pixelArea / target^2))), maxSubdivisionLevel), using the
// original's integer bit-trick GetNextPow2/GetLog2 rather than
// math.Log2: the area ratio is truncated to an integer first, and
// using the bit-trick keeps the rounding behaviour exactly the
// original's rather than drifting on floating-point log edge cases.
func calculateDynamicSubdivisionLevel(uv Triangle, textureSize Vec2i, scale float32, maxLevel uint32) uint32 {
	dx := (uv.AabbMax.X - uv.AabbMin.X) * float32(textureSize.X)
	dy := (uv.AabbMax.Y - uv.AabbMin.Y) * float32(textureSize.Y)
	pixelArea := dx * dy
	if pixelArea <= 0 || math.IsNaN(float64(pixelArea)) || math.IsInf(float64(pixelArea), 0) {
		return 0
	}
	target := scale
	ratio := pixelArea / (target * target)
	if ratio < 1 {
		return 0
	}
	pow2 := getNextPow2(uint32(ratio))
	level := getLog2(pow2) / 2
	return min(level, maxLevel)
}

// getNextPow2 rounds v up to the next power of two (v itself if already
// one), matching the original's bit-trick exactly.
func getNextPow2(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return nextPow2(v)
}

// getLog2 returns floor(log2(v)) by counting right shifts, an integer
// log rather than a floating-point math.Log2 round-trip.
func getLog2(v uint32) uint32 {
	var r uint32
	for v > 1 {
		v >>= 1
		r++
	}
	return r
}

// ValidateWorkloadSize implements the §4.5 workload guard: the sum over
// work items of the texel-area of each UV triangle's bounding box must
// not exceed 2^27, or the bake returns WORKLOAD_TOO_BIG.
func ValidateWorkloadSize(items []*OmmWorkItem, textureSize Vec2i) error {
	const maxTexelArea = 1 << 27
	var total uint64
	for _, w := range items {
		dx := uint64((w.UVTriangle.AabbMax.X - w.UVTriangle.AabbMin.X) * float32(textureSize.X))
		dy := uint64((w.UVTriangle.AabbMax.Y - w.UVTriangle.AabbMin.Y) * float32(textureSize.Y))
		total += dx * dy
		if total > maxTexelArea {
			return errWorkloadTooBig("work-item texel area %d exceeds %d", total, maxTexelArea)
		}
	}
	return nil
}
