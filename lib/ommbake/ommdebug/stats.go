// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// Package ommdebug provides read-only introspection over a baked
// BakeResult: per-state micro-triangle tallies and histogram consistency
// checks.
// It never mutates a BakeResult and is not part of the core baking
// pipeline (spec.md §1 scopes image dumping and benchmarking as external
// collaborators; this package covers the debug-statistics slice of that
// surface that the baked result format itself makes cheap to offer).
package ommdebug

import (
	"encoding/binary"
	"fmt"

	"github.com/opacitymicromap/ommbake/lib/ommbake"
)

// Stats tallies, over every triangle in a baked result, how many
// micro-triangles (for non-special OMMs) or whole triangles (for special
// indices) fall into each of the eight possible classifications.
type Stats struct {
	TotalOpaque             uint64
	TotalTransparent        uint64
	TotalUnknownOpaque      uint64
	TotalUnknownTransparent uint64

	TotalFullyOpaque             uint64
	TotalFullyTransparent        uint64
	TotalFullyUnknownOpaque      uint64
	TotalFullyUnknownTransparent uint64
}

// GetStats walks every descriptor exactly once, tallies its micro-
// triangle states, then walks the index buffer once to attribute those
// per-descriptor tallies (and the special-index counts) to stats,
// mirroring the two-pass structure of the original's CollectStats.
func GetStats(res ommbake.BakeResultDesc) Stats {
	type descStats struct {
		opaque, transparent, unknownOpaque, unknownTransparent uint64
	}
	perDesc := make([]descStats, len(res.DescArray))
	for i, d := range res.DescArray {
		n := uint32(1) << (2 * uint32(d.SubdivisionLevel))
		payload := res.ArrayData[d.Offset:]
		for u := uint32(0); u < n; u++ {
			switch ommbake.UnpackState(d.Format, payload, u) {
			case ommbake.StateOpaque:
				perDesc[i].opaque++
			case ommbake.StateTransparent:
				perDesc[i].transparent++
			case ommbake.StateUnknownOpaque:
				perDesc[i].unknownOpaque++
			case ommbake.StateUnknownTransparent:
				perDesc[i].unknownTransparent++
			}
		}
	}

	var stats Stats
	triCount := indexCount(res)
	for i := 0; i < triCount; i++ {
		idx := readIndex(res, i)
		switch {
		case idx == int32(ommbake.SpecialIndexFullyOpaque):
			stats.TotalFullyOpaque++
		case idx == int32(ommbake.SpecialIndexFullyTransparent):
			stats.TotalFullyTransparent++
		case idx == int32(ommbake.SpecialIndexFullyUnknownOpaque):
			stats.TotalFullyUnknownOpaque++
		case idx == int32(ommbake.SpecialIndexFullyUnknownTransparent):
			stats.TotalFullyUnknownTransparent++
		default:
			d := perDesc[idx]
			stats.TotalOpaque += d.opaque
			stats.TotalTransparent += d.transparent
			stats.TotalUnknownOpaque += d.unknownOpaque
			stats.TotalUnknownTransparent += d.unknownTransparent
		}
	}
	return stats
}

func indexCount(res ommbake.BakeResultDesc) int {
	if res.IndexFormat == ommbake.IndexFormatI16 {
		return len(res.IndexBuffer) / 2
	}
	return len(res.IndexBuffer) / 4
}

func readIndex(res ommbake.BakeResultDesc, i int) int32 {
	if res.IndexFormat == ommbake.IndexFormatI16 {
		return int32(int16(binary.LittleEndian.Uint16(res.IndexBuffer[i*2:])))
	}
	return int32(binary.LittleEndian.Uint32(res.IndexBuffer[i*4:]))
}

// ValidateHistograms checks the two invariants spec.md §8 requires of a
// baked result's histograms against its descriptor/index arrays:
// Σ ommArrayHistogram.count == ommDescArrayCount, and
// Σ ommIndexHistogram.count == the number of non-special index entries.
func ValidateHistograms(res ommbake.BakeResultDesc) error {
	var arrayTotal, indexTotal uint64
	for _, e := range res.ArrayHistogram {
		arrayTotal += uint64(e.Count)
	}
	for _, e := range res.IndexHistogram {
		indexTotal += uint64(e.Count)
	}
	if arrayTotal != uint64(len(res.DescArray)) {
		return fmt.Errorf("array histogram total %d != descriptor count %d", arrayTotal, len(res.DescArray))
	}

	triCount := indexCount(res)
	var nonSpecial uint64
	for i := 0; i < triCount; i++ {
		if readIndex(res, i) >= 0 {
			nonSpecial++
		}
	}
	if indexTotal != nonSpecial {
		return fmt.Errorf("index histogram total %d != non-special index count %d", indexTotal, nonSpecial)
	}
	return nil
}
