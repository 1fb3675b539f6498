// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package ommbake

import "testing"

func levelItem(level uint32, centroid Vec2) *OmmWorkItem {
	tri := NewTriangle(centroid, centroid, centroid)
	return newWorkItem(tri, level, OMMFormatOC1_4State, 0)
}

func TestMicromapSpatialSortOrdersByLevelDescending(t *testing.T) {
	low := levelItem(0, Vec2{X: 0.1, Y: 0.1})
	mid := levelItem(1, Vec2{X: 0.2, Y: 0.2})
	high := levelItem(3, Vec2{X: 0.3, Y: 0.3})
	items := []*OmmWorkItem{low, mid, high}

	MicromapSpatialSort(items)

	if items[0] != high || items[1] != mid || items[2] != low {
		t.Errorf("sort order = [%d %d %d] levels, want descending [3 1 0]", items[0].Level, items[1].Level, items[2].Level)
	}
}

func TestMicromapSpatialSortPutsSpecialsFirstAndDisabledLast(t *testing.T) {
	regular := levelItem(5, Vec2{X: 0.5, Y: 0.5})
	special := levelItem(1, Vec2{X: 0.1, Y: 0.1})
	special.SpecialIndex = SpecialIndexFullyOpaque
	disabled := levelItem(9, Vec2{X: 0.9, Y: 0.9})
	disabled.disabled = true
	items := []*OmmWorkItem{regular, special, disabled}

	MicromapSpatialSort(items)

	if items[0] != special {
		t.Errorf("special item should sort first (its key's bit 63 dominates), got %v", items[0])
	}
	if items[len(items)-1] != disabled {
		t.Errorf("disabled item should sort last (key 0), got %v", items[len(items)-1])
	}
}

func TestMicromapSpatialSortIsStableForEqualKeys(t *testing.T) {
	a := levelItem(2, Vec2{X: 0.4, Y: 0.4})
	b := levelItem(2, Vec2{X: 0.4, Y: 0.4}) // identical centroid and level -> identical key
	items := []*OmmWorkItem{a, b}

	MicromapSpatialSort(items)

	if items[0] != a || items[1] != b {
		t.Errorf("equal-key sort should be stable and preserve input order")
	}
}
