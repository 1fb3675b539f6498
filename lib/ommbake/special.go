// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package ommbake

// PromoteToSpecialIndices scans every active (non-disabled) work item
// and collapses it to a negative sentinel index when either its
// micro-triangle states are all equal, or — when rejectionThreshold > 0
// and RemovePoorQualityOMM is not disabled — too few of its states are
// known to be worth keeping an array slot for. Run twice by the caller,
// once before deduplication and once after (spec.md §4.7).
func PromoteToSpecialIndices(items []*OmmWorkItem, rejectionThreshold float32, disableRemovePoorQuality, disableSpecialIndices bool) {
	if disableSpecialIndices {
		return
	}
	for _, w := range items {
		if w.disabled || w.IsSpecial() {
			continue
		}
		if uniform, state := uniformState(w); uniform {
			w.SpecialIndex = specialIndexForState(state)
			continue
		}
		if rejectionThreshold <= 0 || disableRemovePoorQuality {
			continue
		}
		if knownFraction(w) < rejectionThreshold {
			w.SpecialIndex = SpecialIndexFullyUnknownTransparent
		}
	}
}

func uniformState(w *OmmWorkItem) (bool, OpacityState) {
	n := w.NumMicroTriangles()
	if n == 0 {
		return false, StateTransparent
	}
	first := w.GetState(0)
	for i := 1; i < n; i++ {
		if w.GetState(i) != first {
			return false, StateTransparent
		}
	}
	return true, first
}

func knownFraction(w *OmmWorkItem) float32 {
	n := w.NumMicroTriangles()
	if n == 0 {
		return 0
	}
	known := 0
	for i := 0; i < n; i++ {
		if w.GetState(i).IsKnown() {
			known++
		}
	}
	return float32(known) / float32(n)
}
