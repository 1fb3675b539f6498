// Copyright 2025 The OMM Bake Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package ommbake

// HistogramEntry is one (format, subdivisionLevel) bucket's count,
// matching the wire layout of spec.md §6's histogram records.
type HistogramEntry struct {
	Count            uint32
	SubdivisionLevel uint16
	Format           OMMFormat
}

// histogramKey identifies one (format, level) bucket.
type histogramKey struct {
	format OMMFormat
	level  uint32
}

// usageHistogram accumulates per-(format, level) counts; spec.md §4.8
// defines two instances per bake, one counting distinct OMMs (array
// histogram) and one counting referencing triangles (index histogram).
type usageHistogram struct {
	counts map[histogramKey]uint32
	order  []histogramKey // first-seen order, kept for deterministic output
}

func newUsageHistogram() *usageHistogram {
	return &usageHistogram{counts: make(map[histogramKey]uint32)}
}

// Inc adds delta to the (format, level) bucket's count.
func (h *usageHistogram) Inc(format OMMFormat, level uint32, delta uint32) {
	key := histogramKey{format: format, level: level}
	if _, ok := h.counts[key]; !ok {
		h.order = append(h.order, key)
	}
	h.counts[key] += delta
}

// Entries returns the histogram's non-empty buckets in first-seen order.
func (h *usageHistogram) Entries() []HistogramEntry {
	entries := make([]HistogramEntry, 0, len(h.order))
	for _, key := range h.order {
		entries = append(entries, HistogramEntry{
			Count:            h.counts[key],
			SubdivisionLevel: uint16(key.level),
			Format:           key.format,
		})
	}
	return entries
}

// Total returns the sum of every bucket's count.
func (h *usageHistogram) Total() uint32 {
	var total uint32
	for _, c := range h.counts {
		total += c
	}
	return total
}

// BuildHistograms computes the array and index histograms over items
// per spec.md §4.8: the array histogram counts one per non-special work
// item, the index histogram counts the primitives referencing it.
func BuildHistograms(items []*OmmWorkItem) (array, index *usageHistogram) {
	array, index = newUsageHistogram(), newUsageHistogram()
	for _, w := range items {
		if w.disabled || w.IsSpecial() {
			continue
		}
		array.Inc(w.Format, w.Level, 1)
		index.Inc(w.Format, w.Level, uint32(len(w.PrimitiveIndices)))
	}
	return array, index
}
